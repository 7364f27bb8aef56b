package score

// Demo returns the built-in demo score: the first two bars of "Frère
// Jacques" on a single page, with a swept cursor over the staff, per-measure
// highlights and a highlighted notehead per sounding note.
func Demo() *Document {
	noteBoxes := []ElementDecl{
		{ID: "n1", X: 60, Y: 80, Width: 24, Height: 24},
		{ID: "n2", X: 130, Y: 72, Width: 24, Height: 24},
		{ID: "n3", X: 200, Y: 64, Width: 24, Height: 24},
		{ID: "n4", X: 270, Y: 80, Width: 24, Height: 24},
		{ID: "n5", X: 360, Y: 64, Width: 24, Height: 24},
		{ID: "n6", X: 430, Y: 56, Width: 24, Height: 24},
		{ID: "n7", X: 500, Y: 48, Width: 48, Height: 24},
	}

	elements := []ElementDecl{
		{ID: "staff", X: 40, Y: 40, Width: 560, Height: 120},
		{ID: "m1", X: 40, Y: 40, Width: 280, Height: 120},
		{ID: "m2", X: 320, Y: 40, Width: 280, Height: 120},
	}
	elements = append(elements, noteBoxes...)

	// pitches of the opening phrase
	const (
		c4 = 261.63
		d4 = 293.66
		e4 = 329.63
		f4 = 349.23
		g4 = 392.00
	)

	events := []EventDecl{
		{Start: "0", Duration: "/4", Frequency: c4, Graphics: []string{"n1"}},
		{Start: "1/4", Duration: "/4", Frequency: d4, Graphics: []string{"n2"}},
		{Start: "1/2", Duration: "/4", Frequency: e4, Graphics: []string{"n3"}},
		{Start: "3/4", Duration: "/4", Frequency: c4, Graphics: []string{"n4"}},
		{Start: "1", Duration: "/4", Frequency: e4, Dynamics: 96, Graphics: []string{"n5"}},
		{Start: "1.25", Duration: "/4", Frequency: f4, Dynamics: 96, Graphics: []string{"n6"}},
		{Start: "1.5", Duration: "/2", Frequency: g4, Dynamics: 112, Graphics: []string{"n7"}},
	}

	regions := []RegionDecl{
		// swept cursor across the whole phrase
		{Start: "0", End: "2", Region: "staff", CursorStart: "left", CursorEnd: "right"},
		// one highlight per measure
		{Start: "0", End: "1", Region: "m1"},
		{Start: "1", End: "2", Region: "m2"},
	}

	return &Document{
		Title: "Frère Jacques (demo)",
		Views: []ViewDecl{{Name: "page1", Elements: elements}},
		Performances: []PerformanceDecl{
			{
				Name:    "synthesized",
				Kind:    KindData,
				Tempos:  []TempoDecl{{Start: "0", BPM: 120, Value: "/4"}},
				Regions: regions,
				Events:  events,
			},
		},
	}
}
