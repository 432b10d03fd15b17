package repository

// Package repository contains data access layer abstractions for materials.
// Implementations live in subpackages (e.g., postgres) inside this directory;
// testify-based mocks live in mocks.
