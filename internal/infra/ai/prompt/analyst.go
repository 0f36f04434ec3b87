package prompt

// BreedNames are the breeds the model is asked to choose from, as spelled in the prompt.
var BreedNames = []string{
	"Sahiwal", "Gir", "Red Sindhi", "Tharparkar",
	"Jangli Bhains", "Murrah", "Jaffrabadi", "Nili-Ravi",
}

// GetUserPrompt is the fixed instruction sent alongside every image.
func GetUserPrompt() string {
	return userPrompt
}

const userPrompt = "Analyze this image of Indian cattle or buffalo. " +
	"Identify the breed if possible from these options: " +
	"Sahiwal, Gir, Red Sindhi, Tharparkar, Jangli Bhains, Murrah, Jaffrabadi, Nili-Ravi. " +
	"Also assess the animal's health by looking for signs of illness, injury, or malnutrition. " +
	"Provide your response in JSON format with these keys: breed (string), confidence (float), " +
	"health_score (0-100), health_issues (array of strings), and recommendations (array of strings)."
