package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Static always yields key.
func Static(key string) KeyFunc {
	return func(echo.Context) string { return key }
}

// ID yields prefix:<hex> when the path parameter is an ObjectID, in either
// case. Anything else yields "" and the request bypasses the cache, so a raw
// parameter can never spell another route's key.
func ID(prefix, param string) KeyFunc {
	return func(c echo.Context) string {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(param)))
		if err != nil {
			return ""
		}
		return prefix + ":" + id.Hex()
	}
}

// Query yields prefix:<md5 of the sorted query string>, so the same filters in
// any order share one entry.
func Query(prefix string) KeyFunc {
	return func(c echo.Context) string {
		params := map[string]string{}
		for k, v := range c.QueryParams() {
			params[k] = strings.Join(v, ",")
		}
		return QueryKey(prefix, params)
	}
}

func QueryKey(prefix string, queryParams map[string]string) string {
	keys := make([]string, 0, len(queryParams))
	for k := range queryParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(queryParams[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
