package main

import (
	"errors"
	"testing"

	"confit/converter"
	"confit/schema"
	"confit/source"
	"confit/validator"
)

func TestCelsiusToFahrenheit(t *testing.T) {
	absoluteZero := -273.15

	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"int celsius", 107, 224.6},
		{"float celsius", 100.0, 212.0},
		{"freezing", 0, 32.0},
		{"absolute zero", absoluteZero, 1.8*absoluteZero + 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := celsiusToFahrenheit(tt.input)
			if err != nil {
				t.Fatalf("celsiusToFahrenheit(%v) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("celsiusToFahrenheit(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCelsiusToFahrenheit_Failures(t *testing.T) {
	if _, err := celsiusToFahrenheit(-300); !errors.Is(err, converter.ErrBadValue) {
		t.Errorf("below absolute zero: error = %v, want ErrBadValue", err)
	}
	if _, err := celsiusToFahrenheit("warmish"); !errors.Is(err, converter.ErrWrongType) {
		t.Errorf("non-numeric: error = %v, want ErrWrongType", err)
	}
}

func TestCookingTime(t *testing.T) {
	hours, err := cookingTime(350, 2, 225)
	if err != nil {
		t.Fatalf("cookingTime failed: %v", err)
	}
	if want := 350.0 * 2 / 225; hours != want {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestCookingTime_TooCold(t *testing.T) {
	for _, temperature := range []float64{120, 100, -10} {
		_, err := cookingTime(350, 2, temperature)
		if !errors.Is(err, ErrTooCold) {
			t.Errorf("cookingTime at %g °F: error = %v, want ErrTooCold", temperature, err)
		}
	}
}

func barbecueSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(spec), converter.Registry{
		"celsius_to_fahrenheit": celsiusToFahrenheit,
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return s
}

func TestSpec_ValidatesSettings(t *testing.T) {
	raw, err := source.ParseConfig([]byte(`
dish: brisket
temperature: 107
side dishes: beans
`))
	if err != nil {
		t.Fatal(err)
	}

	config, err := validator.Validate(barbecueSchema(t), raw)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if v, _ := config.Get("dish"); v != "brisket" {
		t.Errorf("dish = %v, want brisket", v)
	}
	if v, _ := config.Get("doneness"); v != 350 {
		t.Errorf("doneness = %v, want 350 (the medium default)", v)
	}
	if v, _ := config.Get("temperature"); v != 224.6 {
		t.Errorf("temperature = %v, want 224.6", v)
	}
	sides, _ := config.Get("side dishes")
	if got, ok := sides.([]any); !ok || len(got) != 1 || got[0] != "beans" {
		t.Errorf("side dishes = %v, want [beans]", sides)
	}
}

func TestSpec_RejectsUnknownDish(t *testing.T) {
	raw, err := source.ParseConfig([]byte("dish: tofu\ntemperature: 107\n"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = validator.Validate(barbecueSchema(t), raw)
	var conversion *validator.ConversionError
	if !errors.As(err, &conversion) {
		t.Fatalf("error = %v, want a ConversionError", err)
	}
	if conversion.Key != "dish" {
		t.Errorf("Key = %q, want dish", conversion.Key)
	}
	if !errors.Is(err, converter.ErrBadValue) {
		t.Errorf("error = %v, want it to wrap ErrBadValue", err)
	}
}

func TestSpec_TemplateRoundTrips(t *testing.T) {
	s := barbecueSchema(t)

	sample, err := validator.Sample(s)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	raw, err := source.ParseConfig([]byte(sample))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	config, err := validator.Validate(s, raw)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if v, _ := config.Get("temperature"); v != 221.0 {
		t.Errorf("temperature = %v, want 221 (105 °C)", v)
	}
	sides, _ := config.Get("side dishes")
	if got, ok := sides.([]any); !ok || len(got) != 2 {
		t.Errorf("side dishes = %v, want two entries", sides)
	}
}

func TestCook_RunsEndToEnd(t *testing.T) {
	raw, err := source.ParseConfig([]byte("dish: smoked salmon\ntemperature: 107\n"))
	if err != nil {
		t.Fatal(err)
	}
	config, err := validator.Validate(barbecueSchema(t), raw)
	if err != nil {
		t.Fatal(err)
	}

	if err := cook(config); err != nil {
		t.Errorf("cook failed: %v", err)
	}
}

func TestCook_TooCold(t *testing.T) {
	raw, err := source.ParseConfig([]byte("dish: brisket\ntemperature: 40\n"))
	if err != nil {
		t.Fatal(err)
	}
	config, err := validator.Validate(barbecueSchema(t), raw)
	if err != nil {
		t.Fatal(err)
	}

	if err := cook(config); !errors.Is(err, ErrTooCold) {
		t.Errorf("cook error = %v, want ErrTooCold", err)
	}
}
