package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Banner pages.
const (
	PageHome    = "homePageBanners"
	PageProduct = "productPageBanners"
)

// Banner statuses.
const (
	BannerActive = "active"
	BannerBanned = "banned"
)

type Banner struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Page       string             `bson:"page" json:"page"`
	Name       string             `bson:"name" json:"name"`
	BannerURL  string             `bson:"bannerUrl,omitempty" json:"bannerUrl,omitempty"`
	Link       string             `bson:"link" json:"link"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
