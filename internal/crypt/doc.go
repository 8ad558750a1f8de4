// Package crypt implements the archive encryption layer: PBKDF2-SHA256
// key derivation and AES-256-GCM authenticated encryption with a detached
// tag. An empty password means no encryption at the archive layer; this
// package is then simply not consulted.
package crypt
