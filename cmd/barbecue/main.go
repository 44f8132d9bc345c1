// Command barbecue is a demonstration program: a cooking-time
// calculator whose settings are validated against a schema before the
// program runs. It exercises choice sets, choice maps, named
// converters and list-optional rules.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"confit/cli"
	"confit/converter"
	"confit/validator"
)

// Version is set via ldflags during build.
var Version = "dev"

const spec = `%YAML 1.2
---
!!omap
- dish:
    - [vegetable kabobs, smoked salmon, brisket]
    - smoked salmon
    - Dish to cook
- doneness:
    - {rare: 200, medium: 350, well-done: 500}
    - medium
    - How well done the dish should be
    - medium
- temperature:
    - celsius_to_fahrenheit
    - 105
    - Cooking temperature in degrees Celsius
- side dishes:
    - <str>
    - [coleslaw, cornbread]
    - Sides to serve with the dish
    - [coleslaw]
`

// difficulties gives the cooking difficulty of each known dish.
var difficulties = map[string]float64{
	"vegetable kabobs": 1,
	"smoked salmon":    2,
	"brisket":          3,
}

// ErrTooCold reports a cooking temperature too low to cook at.
var ErrTooCold = errors.New("too cold to cook")

func main() {
	app := &cli.App{
		Name:    "barbecue",
		Version: Version,
		Spec:    []byte(spec),
		Converters: converter.Registry{
			"celsius_to_fahrenheit": celsiusToFahrenheit,
		},
		Catch: []cli.Matcher{cli.Matches(ErrTooCold)},
		Main:  cook,
	}
	os.Exit(app.Execute())
}

// cook computes and prints the cooking time for the validated
// configuration.
func cook(config *validator.Configuration) error {
	dish := stringValue(config, "dish")
	doneness, _ := config.Get("doneness")
	temperature, _ := config.Get("temperature")

	hours, err := cookingTime(floatValue(doneness), difficulties[dish], floatValue(temperature))
	if err != nil {
		return err
	}

	fmt.Printf("Cooking %s for %.2f hours at %.1f °F.\n", dish, hours, floatValue(temperature))
	if sides, ok := config.Get("side dishes"); ok {
		names := make([]string, 0)
		for _, side := range sides.([]any) {
			names = append(names, side.(string))
		}
		fmt.Printf("Serving with %s.\n", strings.Join(names, " and "))
	}
	return nil
}

// cookingTime returns the cooking time in hours for the desired
// doneness (hr·°F/dc), the dish difficulty (dc) and the temperature
// (°F). Temperatures at or below 120 °F cannot cook.
func cookingTime(doneness, difficulty, temperature float64) (float64, error) {
	if temperature <= 120 {
		return 0, fmt.Errorf("%w: %g °F", ErrTooCold, temperature)
	}
	return doneness * difficulty / temperature, nil
}

// celsiusToFahrenheit converts a temperature in Celsius to Fahrenheit,
// rejecting temperatures below absolute zero.
func celsiusToFahrenheit(value any) (any, error) {
	c, err := converter.Float(value)
	if err != nil {
		return nil, err
	}
	if c < -273.15 {
		return nil, fmt.Errorf("%w: impossibly cold (%g °C)", converter.ErrBadValue, c)
	}
	return 1.8*c + 32, nil
}

func stringValue(config *validator.Configuration, key string) string {
	v, _ := config.Get(key)
	s, _ := v.(string)
	return s
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
