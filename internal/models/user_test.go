package models_test

import (
	"testing"

	"stafflink/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	u := &models.User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", u.DisplayName())

	u = &models.User{Username: "jdoe", FirstName: "Jane"}
	assert.Equal(t, "Jane", u.DisplayName())

	u = &models.User{Username: "jdoe"}
	assert.Equal(t, "jdoe", u.DisplayName())
}
