package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"empresaflow/internal/wizard/models"
	dErrors "empresaflow/pkg/domain-errors"
)

// maxWalkDepth bounds the fallback search; real documents are three levels deep.
const maxWalkDepth = 64

// ResolvedIdentity is the RUT and business key a submission is keyed by.
type ResolvedIdentity struct {
	TaxID       string `json:"rut"`
	BusinessKey int64  `json:"empkey"`
	// Source says how the RUT was found: "datosGenerales", "document" or "search".
	Source string `json:"source"`
}

// Fields are the optional display values copied onto the company record.
type Fields struct {
	Name      *string
	TradeName *string
	Address   *string
	Phone     *string
	Email     *string
}

// Resolve finds the company's RUT and business key.
//
// The RUT is looked up under the known aliases on datosGenerales, then on the
// document's top-level fields, then by a depth-first search for any string
// shaped like a RUT. An explicit empkey wins over derivation but must be a
// positive integer.
func Resolve(doc models.Document) (ResolvedIdentity, error) {
	general := doc.Section(models.TopicGeneral)
	loose := doc.Loose()

	var id ResolvedIdentity
	if taxID, ok := firstTaxID(general); ok {
		id = ResolvedIdentity{TaxID: taxID, Source: string(models.TopicGeneral)}
	} else if taxID, ok := firstTaxID(loose); ok {
		id = ResolvedIdentity{TaxID: taxID, Source: "document"}
	} else if taxID, ok := searchTaxID(doc); ok {
		id = ResolvedIdentity{TaxID: taxID, Source: "search"}
	} else {
		return ResolvedIdentity{}, dErrors.New(dErrors.CodeValidation, "no RUT found in the company data")
	}

	key, explicit, err := explicitBusinessKey(general, loose)
	if err != nil {
		return ResolvedIdentity{}, err
	}
	if !explicit {
		key, err = DeriveBusinessKey(id.TaxID)
		if err != nil {
			return ResolvedIdentity{}, err
		}
	}
	id.BusinessKey = key
	return id, nil
}

// DisplayFields collects name, trade name, address, phone and email, each from
// the first non-empty alias on datosGenerales, datosContacto or the top level.
func DisplayFields(doc models.Document) Fields {
	scopes := []models.Section{
		doc.Section(models.TopicGeneral),
		doc.Section(models.TopicContact),
		doc.Loose(),
	}
	lookup := func(aliases []string) *string {
		for _, s := range scopes {
			if v, ok := firstString(s, aliases); ok {
				return &v
			}
		}
		return nil
	}
	return Fields{
		Name:      lookup(nameAliases),
		TradeName: lookup(tradeNameAliases),
		Address:   lookup(addressAliases),
		Phone:     lookup(phoneAliases),
		Email:     lookup(emailAliases),
	}
}

func firstTaxID(s models.Section) (string, bool) {
	for _, alias := range taxIDAliases {
		raw, ok := stringValue(s[alias])
		if !ok {
			continue
		}
		if taxID, ok := Normalize(raw); ok {
			return taxID, true
		}
	}
	return "", false
}

func firstString(s models.Section, aliases []string) (string, bool) {
	for _, alias := range aliases {
		if v, ok := stringValue(s[alias]); ok {
			return v, true
		}
	}
	return "", false
}

func stringValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func explicitBusinessKey(scopes ...models.Section) (int64, bool, error) {
	for _, s := range scopes {
		for _, alias := range businessKeyAliases {
			raw, ok := stringValue(s[alias])
			if !ok {
				continue
			}
			key, err := parseBusinessKey(raw)
			if err != nil {
				return 0, false, err
			}
			return key, true, nil
		}
	}
	return 0, false, nil
}

// parseBusinessKey takes decimal integers verbatim. Other numeric spellings
// ("1e3", "42.0") are accepted only when integral and below 2^63.
func parseBusinessKey(raw string) (int64, error) {
	if key, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if key <= 0 {
			return 0, dErrors.Newf(dErrors.CodeValidation, "empkey %q must be a positive integer", raw)
		}
		return key, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		if errors.Is(err, strconv.ErrRange) {
			return 0, dErrors.Newf(dErrors.CodeValidation, "empkey %q is out of range", raw)
		}
		return 0, dErrors.Newf(dErrors.CodeValidation, "empkey %q is not a number", raw)
	}
	if f <= 0 || f != math.Trunc(f) || f >= maxKeyFloat {
		return 0, dErrors.Newf(dErrors.CodeValidation, "empkey %q must be a positive integer below 2^63", raw)
	}
	return int64(f), nil
}

// maxKeyFloat is 2^63, the first float64 that no longer fits an int64.
const maxKeyFloat = float64(1 << 63)

// searchTaxID walks the document depth-first: topics in step order, then the
// top-level fields; map keys in lexical order; list items in order. The first
// string shaped like a RUT wins.
func searchTaxID(doc models.Document) (string, bool) {
	w := walker{visited: map[container]struct{}{}}
	for _, step := range models.Steps {
		if s := doc.Section(step.Topic); s != nil {
			if found, ok := w.walk(map[string]any(s), 0); ok {
				return found, true
			}
		}
	}
	if loose := doc.Loose(); loose != nil {
		return w.walk(map[string]any(loose), 0)
	}
	return "", false
}

type walker struct {
	visited map[container]struct{}
}

// container identifies a map or slice. Slices sharing a backing array differ
// by length, so both are part of the identity.
type container struct {
	ptr uintptr
	len int
}

// seen records container identity so a value reachable twice is visited once.
func (w walker) seen(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Len() == 0 {
		return false
	}
	id := container{ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		id.len = rv.Len()
	}
	if _, ok := w.visited[id]; ok {
		return true
	}
	w.visited[id] = struct{}{}
	return false
}

func (w walker) walk(v any, depth int) (string, bool) {
	if depth > maxWalkDepth {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if LooksLikeTaxID(t) {
			if taxID, ok := Normalize(t); ok {
				return taxID, true
			}
		}
	case models.Section:
		return w.walk(map[string]any(t), depth)
	case map[string]any:
		if w.seen(t) {
			return "", false
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if found, ok := w.walk(t[k], depth+1); ok {
				return found, true
			}
		}
	case []any:
		if w.seen(t) {
			return "", false
		}
		for _, item := range t {
			if found, ok := w.walk(item, depth+1); ok {
				return found, true
			}
		}
	case []map[string]any:
		for _, item := range t {
			if found, ok := w.walk(item, depth+1); ok {
				return found, true
			}
		}
	}
	return "", false
}

func (id ResolvedIdentity) String() string {
	return fmt.Sprintf("%s (empkey %d)", id.TaxID, id.BusinessKey)
}
