// roles.go — роли доступа к API и их вычисление из групп IdP.
package middleware

import "net/http"

// Роли в порядке возрастания привилегий.
const (
	RoleReadonly = "readonly"
	RoleAdmin    = "admin"
)

// roleWeight — вес роли; отсутствующая роль имеет вес 0.
var roleWeight = map[string]int{
	RoleReadonly: 1,
	RoleAdmin:    2,
}

// MapGroupsToRole возвращает максимальную роль, которую дают группы.
// Пустая строка — ни одна группа не совпала.
func MapGroupsToRole(groups, adminGroups, readonlyGroups []string) string {
	role := ""
	for _, g := range groups {
		switch {
		case contains(adminGroups, g):
			role = maxRole(role, RoleAdmin)
		case contains(readonlyGroups, g):
			role = maxRole(role, RoleReadonly)
		}
	}
	return role
}

// RoleAllows — роль не ниже требуемой.
func RoleAllows(role, required string) bool {
	return roleWeight[role] > 0 && roleWeight[role] >= roleWeight[required]
}

// RequiredRole — минимальная роль для HTTP-метода:
// чтение доступно readonly, изменения — только admin.
func RequiredRole(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RoleReadonly
	default:
		return RoleAdmin
	}
}

func maxRole(a, b string) string {
	if roleWeight[b] > roleWeight[a] {
		return b
	}
	return a
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
