package chat

import "github.com/haivivi/cropcare/pkg/intent"

// DefaultClarifyPrompt is the reply when nothing in the message was
// recognized and no language model is configured.
const DefaultClarifyPrompt = "I'm here to help with plant disease questions. You can ask about specific diseases like " +
	"'apple scab', 'late blight', or 'powdery mildew', as well as prevention methods, or treatment options. " +
	"What would you like to know about crop care?"

// topicAnswers are the general gardening replies given when no disease is
// named.
var topicAnswers = map[intent.Topic]string{
	intent.TopicTreatment: "For treating plant diseases: 1) Remove infected parts, 2) Improve air circulation, " +
		"3) Apply appropriate fungicides, 4) Ensure proper watering, and 5) Add mulch to prevent soil splashing. " +
		"Always follow product label instructions.",
	intent.TopicPrevention: "To prevent crop diseases: 1) Choose resistant varieties, 2) Ensure proper spacing, " +
		"3) Water at the base of plants, 4) Practice crop rotation, 5) Remove diseased plant material, " +
		"and 6) Apply organic or chemical preventatives as needed.",
	intent.TopicNutrition: "For crop nutrition, consider using balanced NPK fertilizers based on soil tests. " +
		"Organic options include compost, manure, and specific plant-based fertilizers.",
	intent.TopicPests: "To control garden pests: 1) Identify the pest correctly, 2) Start with the least toxic methods, " +
		"3) Consider beneficial insects, 4) Use insecticidal soaps or neem oil for soft-bodied pests, " +
		"5) Use targeted treatments for specific pests.",
	intent.TopicWatering: "Proper watering is crucial: 1) Water deeply and infrequently to encourage deep roots, " +
		"2) Water at the base to keep foliage dry, 3) Water in the morning, " +
		"4) Use drip irrigation when possible, 5) Adjust based on weather conditions and plant needs.",
	intent.TopicSoil: "Healthy soil is the foundation for healthy plants: 1) Add organic matter regularly, " +
		"2) Test soil pH and nutrients, 3) Use appropriate amendments, " +
		"4) Apply mulch to conserve moisture and suppress weeds, 5) Avoid compacting the soil.",
	intent.TopicGreeting: "Hello! I'm your Crop Care Assistant. How can I help you with your plants today?",
}

// TopicAnswer returns the canned reply for a general topic.
func TopicAnswer(t intent.Topic) (string, bool) {
	s, ok := topicAnswers[t]
	return s, ok
}
