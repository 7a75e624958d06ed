package cache

import "fmt"

const (
	CoursePrefix       = "course:"
	RevokedTokenPrefix = "auth:revoked:"
)

func CourseDetailKey(id uint) string {
	return fmt.Sprintf("%sdetail:%d", CoursePrefix, id)
}

func CourseListKey() string {
	return CoursePrefix + "list"
}

// CoursePattern matches every cached catalog entry.
func CoursePattern() string {
	return CoursePrefix + "*"
}

func RevokedTokenKey(jti string) string {
	return RevokedTokenPrefix + jti
}
