package congress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBipartisanScore_ZeroWhenOneSided(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, BipartisanScore(0, 0))
	assert.Equal(t, 0.0, BipartisanScore(5, 0))
	assert.Equal(t, 0.0, BipartisanScore(0, 12))
}

func TestBipartisanScore_Symmetry(t *testing.T) {
	t.Parallel()

	cases := [][2]int{{4, 2}, {1, 9}, {17, 3}, {250, 250}}
	for _, c := range cases {
		assert.Equal(t, BipartisanScore(c[0], c[1]), BipartisanScore(c[1], c[0]),
			"score(%d,%d) must equal score(%d,%d)", c[0], c[1], c[1], c[0])
	}
}

func TestBipartisanScore_Values(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.5, BipartisanScore(4, 2))
	assert.Equal(t, 1.0, BipartisanScore(10, 10))
	assert.Equal(t, 0.33, BipartisanScore(1, 3))
}

func TestBipartisanScore_Range(t *testing.T) {
	t.Parallel()

	for r := 0; r <= 20; r++ {
		for d := 0; d <= 20; d++ {
			score := BipartisanScore(r, d)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestDeriveBillStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", StatusIntroduced},
		{"enacted", "Became Public Law No: 119-21.", StatusEnacted},
		{"signed", "Signed by President.", StatusEnacted},
		{"vetoed", "Vetoed by President.", StatusVetoed},
		{"passed both", "Passed Senate without amendment. Previously Passed House.", StatusPassedBoth},
		{"received senate", "Received in the Senate.", StatusPassedOne},
		{"passed house only", "On motion to suspend the rules and pass the bill, Passed House.", StatusPassedOne},
		{"floor calendar", "Placed on Senate Legislative Calendar under General Orders.", StatusFloor},
		{"floor motion", "Motion to proceed to consideration of measure agreed to.", StatusFloor},
		{"committee", "Reported by the Committee on Energy and Commerce.", StatusCommittee},
		{"referred", "Referred to the House Committee on the Judiciary.", StatusIntroduced},
		{"unrecognized", "Sponsor introductory remarks on measure.", StatusIntroduced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveBillStatus(tt.text))
		})
	}
}

// Enactment phrasing must take precedence even when the same action text
// mentions chamber passage.
func TestDeriveBillStatus_OrderSensitive(t *testing.T) {
	t.Parallel()

	text := "Passed Senate, passed House, and became public law."
	assert.Equal(t, StatusEnacted, DeriveBillStatus(text))
}

func TestIsAdvancedBill(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAdvancedBill("Reported by committee."))
	assert.True(t, IsAdvancedBill("Placed on calendar."))
	assert.True(t, IsAdvancedBill("Passed House."))
	assert.True(t, IsAdvancedBill("Passed House. Passed Senate."))
	assert.True(t, IsAdvancedBill("Became public law."))
	assert.False(t, IsAdvancedBill("Referred to the Committee on Ways and Means."))
	assert.False(t, IsAdvancedBill("Vetoed by President."))
	assert.False(t, IsAdvancedBill(""))
}

func TestFormatBillID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "H.R. 1234", FormatBillID("hr", "1234"))
	assert.Equal(t, "S. 42", FormatBillID("S", "42"))
	assert.Equal(t, "H.J.Res. 7", FormatBillID("hjres", "7"))
	assert.Equal(t, "XYZ 1", FormatBillID("xyz", "1"))
}
