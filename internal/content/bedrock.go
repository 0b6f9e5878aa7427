// Package content generates campaign copy and imagery through AWS Bedrock.
// All generation stays within AWS - no external API calls.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const systemPrompt = `You are a CRM marketing copywriter for a retail loyalty platform.
Write short, friendly campaign messages. Use Liquid placeholders such as
{{name}}, {{total_spend}} and {{visit_count}} where personalization helps.
Return only the message body, no commentary.`

// ModelInvoker is the slice of the Bedrock runtime client we use.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Generator produces campaign message suggestions and hero images.
type Generator struct {
	client       ModelInvoker
	textModelID  string
	imageModelID string
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
	Temperature      float64         `json:"temperature,omitempty"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type titanImageRequest struct {
	TaskType          string          `json:"taskType"`
	TextToImageParams titanTextParams `json:"textToImageParams"`
	ImageConfig       titanImageCfg   `json:"imageGenerationConfig"`
}

type titanTextParams struct {
	Text string `json:"text"`
}

type titanImageCfg struct {
	NumberOfImages int `json:"numberOfImages"`
	Width          int `json:"width"`
	Height         int `json:"height"`
}

type titanImageResponse struct {
	Images []string `json:"images"`
	Error  string   `json:"error,omitempty"`
}

// NewGenerator builds a Generator against the real Bedrock runtime in region.
func NewGenerator(ctx context.Context, region, textModelID, imageModelID string) (*Generator, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	log.Printf("[Content] Bedrock generator ready (text=%s, image=%s, region=%s)", textModelID, imageModelID, region)
	return &Generator{
		client:       bedrockruntime.NewFromConfig(cfg),
		textModelID:  textModelID,
		imageModelID: imageModelID,
	}, nil
}

// NewGeneratorWithClient is used by tests to inject a fake invoker.
func NewGeneratorWithClient(client ModelInvoker, textModelID, imageModelID string) *Generator {
	return &Generator{client: client, textModelID: textModelID, imageModelID: imageModelID}
}

// SuggestMessage asks the text model for a campaign message matching the
// audience description, e.g. "customers who spent over $500 this quarter".
func (g *Generator) SuggestMessage(ctx context.Context, audience, goal string) (string, error) {
	prompt := fmt.Sprintf("Audience: %s\nCampaign goal: %s\nWrite one campaign message.", audience, goal)

	req := claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        500,
		System:           systemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: []claudeContentBlock{{Type: "text", Text: prompt}}},
		},
		Temperature: 0.7,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.textModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke text model: %w", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("text model returned no content")
	}
	log.Printf("[Content] Suggested message (in: %d tokens, out: %d tokens)",
		resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return text, nil
}

// GenerateImage produces a base64-encoded PNG for the campaign, suitable
// for storing on the campaign as its image reference.
func (g *Generator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	req := titanImageRequest{
		TaskType:          "TEXT_IMAGE",
		TextToImageParams: titanTextParams{Text: prompt},
		ImageConfig:       titanImageCfg{NumberOfImages: 1, Width: 512, Height: 512},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.imageModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke image model: %w", err)
	}

	var resp titanImageResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("image model error: %s", resp.Error)
	}
	if len(resp.Images) == 0 {
		return "", fmt.Errorf("image model returned no images")
	}
	return resp.Images[0], nil
}
