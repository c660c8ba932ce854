package adapters

import (
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
)

const (
	variationDecimals = 3
	variationUnit     = "Bn €"
)

// MapVariationToCard converts a backend variation triple into its display card.
func MapVariationToCard(title string, v *api.Variation) *domain.VariationCard {
	if v == nil {
		return nil
	}

	card := &domain.VariationCard{
		Title:    title,
		Previous: format.Number(v.JMinus1, variationDecimals),
		Current:  format.Number(v.J, variationDecimals),
		Delta:    format.Signed(v.Variation, variationDecimals),
		Unit:     variationUnit,
	}

	if v.Variation >= 0 {
		card.Trend = domain.TrendIncrease
		card.ColorCSS = "text-success"
		card.IconCSS = "fa-arrow-up"
	} else {
		card.Trend = domain.TrendDecrease
		card.ColorCSS = "text-danger"
		card.IconCSS = "fa-arrow-down"
	}
	return card
}

// MapBalanceSheetVariations returns the ASSET then LIABILITY cards that are present.
func MapBalanceSheetVariations(v *api.BalanceSheetVariations) []domain.VariationCard {
	if v == nil {
		return nil
	}

	var cards []domain.VariationCard
	if c := MapVariationToCard("ASSET", v.Actif); c != nil {
		cards = append(cards, *c)
	}
	if c := MapVariationToCard("LIABILITY", v.Passif); c != nil {
		cards = append(cards, *c)
	}
	return cards
}

func MapUploadResponseToStatus(slot domain.Slot, fileName string, resp api.UploadResponse) domain.UploadStatus {
	name := resp.Filename
	if name == "" {
		name = fileName
	}
	return domain.UploadStatus{
		Slot:     slot,
		State:    domain.UploadReady,
		FileName: name,
		Size:     resp.FileSize,
		Rows:     resp.Rows,
		Columns:  resp.Columns,
		Message:  resp.Message,
	}
}
