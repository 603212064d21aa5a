package catalog

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"cardvault-backend/internal/domains/catalog/model"
)

// SaveCardRequest is the wire shape for create (POST) and update (PUT
// and PATCH alike). An update replaces every mutable field; a field
// omitted from the body is saved as empty, not left unchanged.
type SaveCardRequest struct {
	Name                  string  `json:"name"`
	HumanReadableCardType string  `json:"humanReadableCardType"`
	Description           string  `json:"description"`
	Race                  string  `json:"race"`
	Attribute             string  `json:"attribute"`
	Archetype             *string `json:"archetype"`
}

func (r SaveCardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, model.MaxNameLength),
		),
		validation.Field(&r.HumanReadableCardType, validation.Length(0, model.MaxCardTypeLength)),
		validation.Field(&r.Description, validation.Length(0, model.MaxDescriptionLength)),
		validation.Field(&r.Race, validation.Length(0, model.MaxRaceLength)),
		validation.Field(&r.Attribute, validation.Length(0, model.MaxAttributeLength)),
	)
}

func (r SaveCardRequest) ToCard() *model.Card {
	return &model.Card{
		Name:          r.Name,
		CardType:      r.HumanReadableCardType,
		Description:   r.Description,
		Race:          r.Race,
		Attribute:     r.Attribute,
		ArchetypeName: r.Archetype,
	}
}
