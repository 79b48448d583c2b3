package gemini

import "fmt"

// placePrompt asks the model for real populated places matching a partial
// name typed into a birthplace field.
func placePrompt(query string, limit int) string {
	return fmt.Sprintf(`A user is typing their place of birth into a form and has entered: %q

List up to %d real, populated places (cities, towns or villages) whose name begins
with or closely matches this text, most likely first.

Rules:
- display_name is "Place, Region" or "Place, Country" using the common English name.
- latitude and longitude are decimal degrees for the town centre.
- Never invent places. If nothing plausible matches, return an empty array.
- Do not include countries or continents on their own.`, query, limit)
}
