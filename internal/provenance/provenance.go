// Package provenance derives period and site attribution from the source
// file naming convention and stamps it onto every extracted row.
package provenance

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// ErrProvenance marks a filename that violates the
// <year>_<cycle>_<site-code>_<site-name>.<ext> convention. Fatal for that
// document: rows that cannot be attributed must not be loaded.
var ErrProvenance = eris.New("provenance: filename does not match <year>_<cycle>_<site-code>_<site-name> convention")

// Parse derives provenance from a source file path. The filename is the
// sole provenance source; upstream renaming must preserve it bit-exact.
// A "_FIX" marker on hand-corrected re-issues is ignored for attribution.
func Parse(path string) (model.Provenance, error) {
	base := filepath.Base(path)
	stem, _, _ := strings.Cut(base, ".")
	stem = strings.ReplaceAll(stem, "_FIX", "")

	parts := strings.Split(stem, "_")
	if len(parts) < 4 {
		return model.Provenance{}, eris.Wrapf(ErrProvenance, "%q has %d segments, need at least 4", base, len(parts))
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year <= 0 {
		return model.Provenance{}, eris.Wrapf(ErrProvenance, "%q: year segment %q is not a positive integer", base, parts[0])
	}
	cycle, err := strconv.Atoi(parts[1])
	if err != nil || cycle <= 0 {
		return model.Provenance{}, eris.Wrapf(ErrProvenance, "%q: cycle segment %q is not a positive integer", base, parts[1])
	}

	code := strings.TrimSpace(parts[2])
	if code == "" {
		return model.Provenance{}, eris.Wrapf(ErrProvenance, "%q: empty site code", base)
	}

	name := strings.TrimSpace(strings.Join(parts[3:], " "))
	if name == "" {
		return model.Provenance{}, eris.Wrapf(ErrProvenance, "%q: empty site name", base)
	}

	return model.Provenance{
		PeriodYear:  year,
		PeriodCycle: cycle,
		SiteCode:    code,
		SiteName:    norm.NFC.String(name),
		SourcePath:  path,
	}, nil
}

// Stamp returns the rows with provenance populated. Rows are value copies;
// the input is not mutated.
func Stamp(rows []model.NormalizedRow, prov model.Provenance) []model.NormalizedRow {
	out := make([]model.NormalizedRow, len(rows))
	for i, r := range rows {
		r.Provenance = prov
		out[i] = r
	}
	return out
}
