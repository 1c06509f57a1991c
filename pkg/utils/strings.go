package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks ids minted locally for records the server has not confirmed yet.
const TempIDPrefix = "tmp_"

func GenerateUUID() string {
	return uuid.NewString()
}

// TempID returns a placeholder id for an optimistic insert.
func TempID() string {
	return TempIDPrefix + GenerateUUID()
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// ParseInt parses a string to int with a fallback default value
func ParseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// ParseIDs splits a comma separated id list, dropping blanks.
func ParseIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
