package table

import (
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

// ErrUnparsable means no strategy could extract a table identity.
var ErrUnparsable = errors.New("unparsable qr payload")

var (
	keyValueRe = regexp.MustCompile(`(?i)\b(mallId|mall|storeId|store|table|mesa)\s*[:=]\s*([A-Za-z0-9_-]+)`)
	bareToken  = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

// ParseQRPayload decodes a scanned QR payload into a table identity. The
// strategies run in priority order: JSON object, URL query parameters,
// key=value extraction, and finally a bare token of at least six characters
// which is taken as the mall ID alone.
func ParseQRPayload(payload string) (domain.Table, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return domain.Table{}, ErrUnparsable
	}

	if t, ok := parseJSON(payload); ok {
		return t, nil
	}
	if t, ok := parseURL(payload); ok {
		return t, nil
	}
	if t, ok := parseKeyValues(payload); ok {
		return t, nil
	}
	if bareToken.MatchString(payload) {
		return domain.Table{MallID: payload, Source: domain.TableSourceQR}, nil
	}
	return domain.Table{}, ErrUnparsable
}

func parseJSON(payload string) (domain.Table, bool) {
	if !strings.HasPrefix(payload, "{") {
		return domain.Table{}, false
	}
	var doc struct {
		MallID  string `json:"mallId"`
		StoreID string `json:"storeId"`
		Table   string `json:"table"`
		Mesa    string `json:"mesa"`
	}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return domain.Table{}, false
	}
	t := domain.Table{
		MallID:  doc.MallID,
		StoreID: doc.StoreID,
		Number:  firstNonEmpty(doc.Table, doc.Mesa),
		Source:  domain.TableSourceQR,
	}
	if !t.Resolved() {
		return domain.Table{}, false
	}
	return t, true
}

func parseURL(payload string) (domain.Table, bool) {
	u, err := url.Parse(payload)
	if err != nil || u.RawQuery == "" {
		return domain.Table{}, false
	}
	q := u.Query()
	t := domain.Table{
		MallID:  firstNonEmpty(q.Get("mallId"), q.Get("mall")),
		StoreID: firstNonEmpty(q.Get("storeId"), q.Get("store")),
		Number:  firstNonEmpty(q.Get("table"), q.Get("mesa")),
		Source:  domain.TableSourceQR,
	}
	if !t.Resolved() {
		return domain.Table{}, false
	}
	return t, true
}

func parseKeyValues(payload string) (domain.Table, bool) {
	matches := keyValueRe.FindAllStringSubmatch(payload, -1)
	if len(matches) == 0 {
		return domain.Table{}, false
	}
	var t domain.Table
	t.Source = domain.TableSourceQR
	for _, m := range matches {
		switch strings.ToLower(m[1]) {
		case "mallid", "mall":
			t.MallID = m[2]
		case "storeid", "store":
			t.StoreID = m[2]
		case "table", "mesa":
			t.Number = m[2]
		}
	}
	if !t.Resolved() {
		return domain.Table{}, false
	}
	return t, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
