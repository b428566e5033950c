// Package utils provides time formatting helpers shared by the converter and
// the formatter.
package utils
