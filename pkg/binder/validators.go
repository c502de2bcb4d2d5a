package binder

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var assetPrefixes = []string{"/books/", "/covers/", "/attached_assets/"}

// assetURLValidator accepts a virtual asset path, an absolute http(s) URL, or
// the empty string. Traversal segments are rejected outright even though the
// resolver would strip them.
func assetURLValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if strings.Contains(value, "..") {
		return false
	}
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
