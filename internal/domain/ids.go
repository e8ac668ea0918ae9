package domain

// ImportID identifies one import of the federation membership export.
type ImportID string
