package service

import "github.com/BodiAli/blog-api/internal/models"

// AuthorizeMutation reports whether actingID may change a resource owned by ownerID.
func AuthorizeMutation(ownerID, actingID uint) bool {
	return ownerID == actingID
}

func requireOwner(ownerID, actingID uint, msg string) error {
	if !AuthorizeMutation(ownerID, actingID) {
		return models.NewForbiddenError(msg)
	}
	return nil
}
