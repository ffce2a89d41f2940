package instancesync

import (
	"strings"

	"github.com/hanfei1991/instancesync/model"
)

const identitySep = "\x00"

// identityOf joins the values of keys in params. Values are compared
// verbatim. ok is false when params lacks one of the keys.
func identityOf(params map[string]string, keys []string) (id string, ok bool) {
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		v, exists := params[k]
		if !exists {
			return "", false
		}
		values = append(values, v)
	}
	return strings.Join(values, identitySep), true
}

func displayIdentity(id string) string {
	return strings.ReplaceAll(id, identitySep, "|")
}

// distinct keeps the first params seen for every identity, in input order.
func distinct(candidates []map[string]string, keys []string) []map[string]string {
	seen := make(map[string]struct{}, len(candidates))
	ret := make([]map[string]string, 0, len(candidates))
	for _, params := range candidates {
		id, ok := identityOf(params, keys)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ret = append(ret, params)
	}
	return ret
}

// represented indexes existing records by identity. The first record wins
// when several carry the same identity.
func represented(records []*model.PerpetualTaskRecord, keys []string) map[string]*model.PerpetualTaskRecord {
	ret := make(map[string]*model.PerpetualTaskRecord, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		id, ok := identityOf(rec.ClientContext.ClientParams, keys)
		if !ok {
			continue
		}
		if _, exists := ret[id]; !exists {
			ret[id] = rec
		}
	}
	return ret
}

// missing returns the distinct candidates not represented by any record.
func missing(candidates []map[string]string, records []*model.PerpetualTaskRecord, keys []string) []map[string]string {
	existing := represented(records, keys)
	ret := make([]map[string]string, 0, len(candidates))
	for _, params := range distinct(candidates, keys) {
		id, _ := identityOf(params, keys)
		if _, ok := existing[id]; ok {
			continue
		}
		ret = append(ret, params)
	}
	return ret
}
