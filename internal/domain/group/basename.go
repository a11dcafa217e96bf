package group

import "strings"

// BaseName derives the grouping key of an identifier: the namespace is kept
// and the name is cut at its first hyphen ("org/model-7b" -> "org/model").
func BaseName(id string) string {
	namespace, name, found := strings.Cut(id, "/")
	if !found {
		name = id
	}
	base, _, _ := strings.Cut(name, "-")
	if found {
		return namespace + "/" + base
	}
	return base
}
