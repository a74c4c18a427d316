package main

import "github.com/kevinaaaquil/bookstore/backend/cmd"

func main() {
	cmd.Execute()
}
