package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// ResultKey returns the cache key for a computed assessment result
func (r *CacheKeyStruct) ResultKey(resultID string) string {
	return fmt.Sprintf("result:%s", resultID)
}

var CacheKey = NewCacheKeyStruct()
