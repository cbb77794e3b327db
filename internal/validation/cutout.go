package validation

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CutoutSizes содержит размеры результата, которые принимает remove.bg.
var CutoutSizes = []string{"auto", "preview", "small", "regular", "medium", "hd", "full", "4k", "50MP"}

type cutoutParams struct {
	Size string `validate:"required,oneof=auto preview small regular medium hd full 4k 50MP"`
}

// ValidateCutoutSize проверяет, что размер результата поддерживается remove.bg.
func ValidateCutoutSize(size string) error {
	return validate.Struct(cutoutParams{Size: size})
}
