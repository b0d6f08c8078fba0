//
// Tencent is pleased to support the open source community by making trpc-caption-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-caption-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import "fmt"

// Columns lists the tabular columns of a split, in order.
var Columns = []string{"image_id", "caption_id", "caption", "file_name", "image_path"}

// Dataset holds the train and test splits.
type Dataset struct {
	Train Records
	Test  Records
}

// Assemble combines the two splits. It performs no transformation.
func Assemble(train, test Records) *Dataset {
	return &Dataset{Train: train, Test: test}
}

// SplitNames returns the split names in storage order.
func (d *Dataset) SplitNames() []string {
	return []string{SplitTrain, SplitTest}
}

// Split returns the records of the named split.
func (d *Dataset) Split(name string) (Records, error) {
	switch name {
	case SplitTrain:
		return d.Train, nil
	case SplitTest:
		return d.Test, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplit, name)
	}
}

// NumRows returns the record count of every split.
func (d *Dataset) NumRows() map[string]int {
	return map[string]int{
		SplitTrain: len(d.Train),
		SplitTest:  len(d.Test),
	}
}

// Table is a column/row view of one split.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Table returns the named split as a table with the Columns header.
func (d *Dataset) Table(name string) (*Table, error) {
	records, err := d.Split(name)
	if err != nil {
		return nil, err
	}
	t := &Table{
		Columns: append([]string(nil), Columns...),
		Rows:    make([][]any, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []any{r.ImageID, r.CaptionID, r.Caption, r.FileName, r.ImagePath})
	}
	return t, nil
}
