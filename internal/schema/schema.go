// Package schema validates row values against a table's column
// definitions before they are handed to the storage manager for
// insertion, and fills in declared defaults for omitted columns.
package schema

import (
	"strconv"
	"strings"

	"github.com/bambangdb/bambangdb/internal/catalog"
	"github.com/bambangdb/bambangdb/internal/dberr"
	"github.com/bambangdb/bambangdb/internal/value"
)

// Validate checks that values has exactly one entry per column, that no
// non-nullable column receives a Null, and that every value's kind is
// compatible with its column's declared data type.
func Validate(table catalog.TableDef, values []value.Value) error {
	if len(values) != len(table.Columns) {
		return dberr.InvalidData("value count does not match column count")
	}
	for i, col := range table.Columns {
		v := values[i]
		if v.IsNull() {
			if !col.Nullable {
				return dberr.InvalidData("column " + col.Name + " is not nullable")
			}
			continue
		}
		if !typeCompatible(col.DataType, v) {
			return dberr.InvalidData("column " + col.Name + " has incompatible value type")
		}
	}
	return nil
}

func typeCompatible(dataType string, v value.Value) bool {
	switch strings.ToUpper(dataType) {
	case "INTEGER", "INT":
		return v.Kind == value.KindInteger || v.Kind == value.KindBoolean
	case "REAL", "FLOAT", "DOUBLE":
		return v.Kind == value.KindReal || v.Kind == value.KindInteger
	case "TEXT", "VARCHAR", "STRING":
		return v.Kind == value.KindText
	case "BLOB":
		return v.Kind == value.KindBlob
	case "BOOLEAN", "BOOL":
		return v.Kind == value.KindBoolean
	case "TIMESTAMP", "DATETIME":
		return v.Kind == value.KindTimestamp
	default:
		// Unknown declared type: accept anything, matching the storage
		// layer's position that type enforcement lives above it.
		return true
	}
}

// ApplyDefaults builds a full value list in column order from supplied,
// which is keyed by column name. Each column absent from supplied gets
// its declared default, or Null if it has none and is nullable; a
// non-nullable column with neither a supplied value nor a default is an
// error. A column present in supplied keeps its value even when that
// value is Null: its default is not substituted.
func ApplyDefaults(table catalog.TableDef, supplied map[string]value.Value) ([]value.Value, error) {
	out := make([]value.Value, len(table.Columns))
	for i, col := range table.Columns {
		if v, ok := supplied[col.Name]; ok {
			out[i] = v
			continue
		}
		def, err := defaultValue(col)
		if err != nil {
			return nil, err
		}
		out[i] = def
	}
	return out, nil
}

func defaultValue(col catalog.ColumnDef) (value.Value, error) {
	if col.Default == "" || col.Default == "NULL" {
		if col.Nullable {
			return value.Null(), nil
		}
		return value.Value{}, dberr.InvalidData("column " + col.Name + " has no value and no default")
	}
	switch strings.ToUpper(col.DataType) {
	case "INTEGER", "INT":
		n, err := strconv.ParseInt(col.Default, 10, 64)
		if err != nil {
			return value.Value{}, dberr.InvalidData("invalid integer default for column " + col.Name)
		}
		return value.Integer(n), nil
	case "REAL", "FLOAT", "DOUBLE":
		f, err := strconv.ParseFloat(col.Default, 64)
		if err != nil {
			return value.Value{}, dberr.InvalidData("invalid real default for column " + col.Name)
		}
		return value.Real(f), nil
	case "BOOLEAN", "BOOL":
		return value.Boolean(col.Default == "true" || col.Default == "1"), nil
	default:
		return value.Text(col.Default), nil
	}
}
