package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// newBedrockClient builds a Bedrock runtime client from the default AWS
// credential chain.
func newBedrockClient(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// tokenUsage pulls prompt and completion token counts out of a provider's
// generation info. Providers disagree on key names and integer types.
func tokenUsage(info map[string]any) (in, out int64) {
	return firstInt(info, "PromptTokens", "InputTokens", "input_tokens", "prompt_tokens"),
		firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens", "completion_tokens")
}

func firstInt(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
