// Package report renders module profiles.
//
// JSON is the machine contract: one object per module with stable field
// names. Text is for people and lays the same numbers out as tables.
package report
