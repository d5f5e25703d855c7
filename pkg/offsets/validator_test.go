package offsets

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name                          string
		earliest, latest, start, end  int64
		want                          *PartitionOffsets
	}{
		{"entirely inside", 100, 900, 200, 300, &PartitionOffsets{200, 300}},
		{"overlaps beginning", 100, 900, 50, 300, &PartitionOffsets{100, 300}},
		{"entirely before", 100, 900, 1, 50, nil},
		{"entirely after", 100, 900, 1000, 5000, nil},
		{"overlaps end", 100, 900, 800, 1000, &PartitionOffsets{800, 900}},
		{"boundary start equals earliest", 100, 900, 100, 900, &PartitionOffsets{100, 900}},
		{"boundary end one before earliest", 100, 900, 50, 99, nil},
		{"boundary start one after latest", 100, 900, 901, 2000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.earliest, tt.latest, tt.start, tt.end)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("Validate() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

// TestValidateIsPure checks that repeated calls with identical inputs return
// equal outputs: Validate has no hidden state or side channel to vary by.
func TestValidateIsPure(t *testing.T) {
	a := Validate(100, 900, 800, 1000)
	b := Validate(100, 900, 800, 1000)
	if *a != *b {
		t.Fatalf("Validate() not pure: %+v != %+v", *a, *b)
	}
}
