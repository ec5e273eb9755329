// Package main provides the entry point for the tenantcore identity service.
// It hosts the multi-tenant identity and access-control core: stable UID
// mapping for users and groups, effective-role resolution, permission
// extraction and the domain/user/group/role lifecycle, backed by a relational
// store via gorm and an external authentication directory per domain.
package main
