package gemini

import "google.golang.org/genai"

var structuredPromptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject":           {Type: genai.TypeString, Description: "Must start with the visual style"},
		"action":            {Type: genai.TypeString},
		"environment":       {Type: genai.TypeString},
		"camera_movement":   {Type: genai.TypeString},
		"lighting":          {Type: genai.TypeString},
		"visual_style_tags": {Type: genai.TypeString},
	},
	Required: []string{"subject", "action", "environment", "camera_movement", "lighting", "visual_style_tags"},
}

var sceneSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"number":            {Type: genai.TypeNumber, Description: "1-based scene position"},
		"narration":         {Type: genai.TypeString, Description: "About 20-25 words"},
		"tone":              {Type: genai.TypeString},
		"structuredPrompt1": structuredPromptSchema,
		"structuredPrompt2": structuredPromptSchema,
	},
	Required: []string{"number", "narration", "tone", "structuredPrompt1", "structuredPrompt2"},
}

// StorySchema is the response schema for story generation.
var StorySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":        {Type: genai.TypeString},
		"numScenes":    {Type: genai.TypeNumber},
		"visualStyle":  {Type: genai.TypeString},
		"language":     {Type: genai.TypeString},
		"scenes":       {Type: genai.TypeArray, Items: sceneSchema},
		"tiktokCover":  {Type: genai.TypeString, Description: "9:16 cover image prompt"},
		"youtubeCover": {Type: genai.TypeString, Description: "16:9 cover image prompt"},
		"hashtags":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"title", "numScenes", "visualStyle", "language", "scenes", "tiktokCover", "youtubeCover", "hashtags"},
}

// AffiliateSchema is the response schema for affiliate prompt generation.
var AffiliateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
		"caption": {Type: genai.TypeString},
		"assets": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"label":       {Type: genai.TypeString},
					"imagePrompt": {Type: genai.TypeString},
					"videoPrompt": {Type: genai.TypeString},
				},
				Required: []string{"label", "imagePrompt", "videoPrompt"},
			},
		},
	},
	Required: []string{"summary", "caption", "assets"},
}
