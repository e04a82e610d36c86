// Package models defines the domain records owned by the check-in engine:
// the device owner (User), emergency contacts (Contact) and the single
// persisted aggregate (AppState).
package models
