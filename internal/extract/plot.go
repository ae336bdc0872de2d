package extract

import (
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ncl-icb-analytics/cosd-extract/internal/document"
	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// ErrPayloadParse marks an embedded payload that was present but could not
// be decoded. Recoverable per payload: extraction continues with the rest of
// the document and the failure surfaces in the warning list.
var ErrPayloadParse = eris.New("extract: embedded payload could not be decoded")

// Plots yields one raw record per category/point of every chart-backing
// payload in the document's tabbed panels, origin "plot". Undecodable
// payloads become warnings, never document failures, and are never dropped
// silently.
func Plots(doc *document.Document) ([]model.RawRecord, []model.Warning) {
	var records []model.RawRecord
	var warnings []model.Warning

	for _, sec := range doc.Tabs() {
		raw, ok := sec.PayloadJSON()
		if !ok {
			continue
		}
		if isTablePayload(raw) {
			continue // table widgets belong to Tables
		}
		recs, err := decodePayload(sec, raw)
		if err != nil {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarningPayloadParse,
				Element: sec.ID,
				Detail:  err.Error(),
			})
			continue
		}
		records = append(records, recs...)
	}

	return records, warnings
}

// decodePayload runs the decoder set against one payload in priority order.
func decodePayload(sec document.Section, raw string) ([]model.RawRecord, error) {
	if !gjson.Valid(raw) {
		return nil, eris.Wrapf(ErrPayloadParse, "%s: payload is not valid JSON", sec.ID)
	}
	root := gjson.Parse(raw)
	for _, d := range payloadDecoders {
		if recs, ok := d.fn(sec, root); ok {
			zap.L().Debug("payload decoded",
				zap.String("section", sec.ID),
				zap.String("decoder", d.name),
				zap.Int("records", len(recs)),
			)
			return recs, nil
		}
	}
	return nil, eris.Wrapf(ErrPayloadParse, "%s: no decoder recognised the payload shape", sec.ID)
}

func payloadWarning(element, detail string) *model.Warning {
	return &model.Warning{Kind: model.WarningPayloadParse, Element: element, Detail: detail}
}
