package xlrecord_test

import (
	"fmt"

	"github.com/efwgrp/xlrecord"
)

func ExampleMapper_ExtractRange() {
	g := xlrecord.NewGrid()
	g.SetRow("Sheet1", 1, "Name", "Age")
	g.SetRow("Sheet1", 2, "Alice", 30)
	g.SetRow("Sheet1", 3, "Bob", 25)

	items, err := xlrecord.NewMapper(g).ExtractRange("Sheet1", xlrecord.Single(xlrecord.RowTemplate{
		"name": xlrecord.Col("A"),
		"age":  xlrecord.ColFormat("B", "0.0"),
	}), 2, xlrecord.EndRow(3))
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, it := range items {
		fmt.Println(it["name"].Text(), it["age"].Text())
	}
	// Output:
	// Alice 30.0
	// Bob 25.0
}

func ExampleRecord_Seek() {
	rec := xlrecord.NewRecord([]xlrecord.Item{
		{"name": xlrecord.String("Alice"), "age": xlrecord.Int(30)},
		{"name": xlrecord.String("Bob"), "age": xlrecord.Int(25)},
		{"name": xlrecord.String("Carol"), "age": xlrecord.Int(41)},
	})
	rec.Seek("age", xlrecord.SeekGt, 26).Sort("age", "desc")
	for _, it := range rec.GetArray() {
		fmt.Println(it["name"].Text())
	}
	// Output:
	// Carol
	// Alice
}

func ExampleShiftFormula() {
	fmt.Println(xlrecord.ShiftFormula("SUM(A1:A3)*$B$1", 2, 0))
	// Output: SUM(A3:A5)*$B$1
}
