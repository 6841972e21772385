// Package queryopts normalizes the raw, loosely-typed request option
// map into bounds-checked, type-coerced values (spec.md §4.6). The
// top-level parse (spec.md §4.2.4) calls it right after parsing the root
// subquery, since orderBy/returnProperties paths are validated against
// the current model that step resolves: raw JSON -> parse subquery ->
// normalize options -> attach projection -> compile.
package queryopts

import (
	"strings"

	"github.com/spf13/cast"

	"graphkb-api/internal/kberr"
	"graphkb-api/internal/kbconfig"
	"graphkb-api/internal/kbschema"
	"graphkb-api/internal/queryproject"
)

// Options is the normalized, bounds-checked request option set.
type Options struct {
	Limit             int // 0 means unset: the wrapper emits no LIMIT clause at all
	HasLimit          bool
	Skip              int
	Neighbors         int
	OrderBy           []string
	OrderByDirection  string
	ReturnProperties  []string
	History           bool
	Count             bool
}

// Normalize reads the raw option map (as decoded from request JSON)
// and produces a bounds-checked Options, validating orderBy and
// returnProperties paths against className via the projection builder.
// limits bounds limit/skip/neighbors; it is passed explicitly rather
// than read from a package global (spec.md §5).
func Normalize(raw map[string]interface{}, schema *kbschema.Schema, className string, limits kbconfig.Limits) (*Options, error) {
	opts := &Options{OrderByDirection: "ASC"}

	if v, ok := raw["limit"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, kberr.Validationf("limit must be an integer, got %v", v)
		}
		if n < 1 || n > limits.MaxLimit {
			return nil, kberr.Validationf("limit must be between 1 and %d, got %d", limits.MaxLimit, n)
		}
		opts.Limit = n
		opts.HasLimit = true
	}

	if v, ok := raw["skip"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, kberr.Validationf("skip must be an integer, got %v", v)
		}
		if n < 0 {
			return nil, kberr.Validationf("skip must be >= 0, got %d", n)
		}
		opts.Skip = n
	}

	if v, ok := raw["neighbors"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, kberr.Validationf("neighbors must be an integer, got %v", v)
		}
		if n < 0 || n > limits.MaxNeighbors {
			return nil, kberr.Validationf("neighbors must be between 0 and %d, got %d", limits.MaxNeighbors, n)
		}
		opts.Neighbors = n
	}

	if v, ok := raw["history"]; ok {
		b, err := coerceBool(v)
		if err != nil {
			return nil, kberr.Validationf("history: %s", err.Error())
		}
		opts.History = b
	}

	if v, ok := raw["count"]; ok {
		b, err := coerceBool(v)
		if err != nil {
			return nil, kberr.Validationf("count: %s", err.Error())
		}
		opts.Count = b
	}

	if v, ok := raw["orderByDirection"]; ok {
		dir, err := cast.ToStringE(v)
		if err != nil {
			return nil, kberr.Validationf("orderByDirection must be a string, got %v", v)
		}
		dir = strings.ToUpper(strings.TrimSpace(dir))
		if dir != "ASC" && dir != "DESC" {
			return nil, kberr.Validationf("orderByDirection must be ASC or DESC, got %q", dir)
		}
		opts.OrderByDirection = dir
	}

	if v, ok := raw["orderBy"]; ok {
		paths, err := toPathList(v)
		if err != nil {
			return nil, kberr.Validationf("orderBy: %s", err.Error())
		}
		for _, p := range paths {
			if err := queryproject.ValidatePath(schema, className, p); err != nil {
				return nil, err
			}
		}
		opts.OrderBy = paths
	}

	if v, ok := raw["returnProperties"]; ok {
		paths, err := toPathList(v)
		if err != nil {
			return nil, kberr.Validationf("returnProperties: %s", err.Error())
		}
		for _, p := range paths {
			if err := queryproject.ValidatePath(schema, className, p); err != nil {
				return nil, err
			}
		}
		opts.ReturnProperties = paths
	}

	return opts, nil
}

// toPathList accepts either a comma-separated string or a list of
// strings, per spec.md §4.6.
func toPathList(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, err := cast.ToStringE(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return t, nil
	default:
		return nil, kberr.Validationf("expected a string or list of strings, got %T", v)
	}
}

// CoerceBool implements spec.md §4.6's permissive boolean coercion
// ("t|true|1" / "f|false|0|null") and is exported so other packages
// parsing a per-node "history" flag at any nesting level (queryparse)
// can reuse the exact same rule instead of duplicating it.
func CoerceBool(v interface{}) (bool, error) {
	return coerceBool(v)
}

func coerceBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case nil:
		return false, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "t", "true", "1":
			return true, nil
		case "f", "false", "0", "null":
			return false, nil
		default:
			return false, kberr.Validationf("cannot coerce %q to a boolean", t)
		}
	default:
		return cast.ToBoolE(v)
	}
}
