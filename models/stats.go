package models

// Facet is one author or publisher group.
type Facet struct {
	Name   string   `bson:"name" json:"name"`
	Titles []string `bson:"titles" json:"titles"`
	Count  int      `bson:"count" json:"count"`
}

type MonthlySales struct {
	Year        int     `bson:"year" json:"year"`
	Month       int     `bson:"month" json:"month"`
	TotalSales  float64 `bson:"totalSales" json:"totalSales"`
	TotalOrders int     `bson:"totalOrders" json:"totalOrders"`
}

// AdminStats is the dashboard snapshot returned by GET /api/admin.
type AdminStats struct {
	TotalBooks      int64          `json:"totalBooks"`
	TotalAuthors    int64          `json:"totalAuthors"`
	TotalPublishers int64          `json:"totalPublishers"`
	TotalCategories int64          `json:"totalCategories"`
	TotalOrders     int64          `json:"totalOrders"`
	TotalSales      float64        `json:"totalSales"`
	TrendingBooks   int64          `json:"trendingBooks"`
	MonthlySales    []MonthlySales `json:"monthlySales"`
}
