package mcp

import "github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", apperr.New(apperr.KindValidation, "missing required argument: "+key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", apperr.New(apperr.KindValidation, "argument must be a non-empty string: "+key)
	}
	return s, nil
}

func argStringOpt(args map[string]any, key, def string) string {
	v, ok := args[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func argUint64(args map[string]any, key string) (uint64, error) {
	v, ok := args[key]
	if !ok {
		return 0, apperr.New(apperr.KindValidation, "missing required argument: "+key)
	}
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, apperr.New(apperr.KindValidation, "argument must not be negative: "+key)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, apperr.New(apperr.KindValidation, "argument must not be negative: "+key)
		}
		return uint64(n), nil
	default:
		return 0, apperr.New(apperr.KindValidation, "argument must be numeric: "+key)
	}
}

func argIntOpt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func argBoolOpt(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func argIntPtrOpt(args map[string]any, key string) *int {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	default:
		return nil
	}
}

func argUint32Opt(args map[string]any, key string) *uint32 {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		u := uint32(n)
		return &u
	case int:
		u := uint32(n)
		return &u
	default:
		return nil
	}
}
