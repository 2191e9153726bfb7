package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadRecord is the persisted metadata for one stored upload.
type UploadRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Path         string             `bson:"path" json:"path"`
	OriginalName string             `bson:"originalName" json:"originalName"`
	ContentType  string             `bson:"contentType" json:"contentType"`
	Size         int64              `bson:"size" json:"size"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
