package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MELODIA/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client. Metrics are only
// published when explicitly enabled (METRICS_ENABLED=true).
func NewClient(ctx context.Context, environment, region string, enabled bool) (*Client, error) {
	if !enabled {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s, region: %s)", namespace, region)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
	}, nil
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{
				Name:  aws.String("Endpoint"),
				Value: aws.String(endpoint),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	}()
}

// RecordGeneration records the outcome of one melody generation run.
// fallbackChunks counts chunks that fell back to the deterministic engine.
func (m *Client) RecordGeneration(emotion string, notes, fallbackChunks int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Emotion"),
				Value: aws.String(emotion),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if err := m.putMetric(ctx, "Generations", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record Generations metric: %v", err)
		}

		if err := m.putMetric(ctx, "GeneratedNotes", float64(notes), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record GeneratedNotes metric: %v", err)
		}

		if err := m.putMetric(ctx, "FallbackChunks", float64(fallbackChunks), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record FallbackChunks metric: %v", err)
		}

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "GenerationLatency", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record GenerationLatency metric: %v", err)
		}
	}()
}

// RecordOracleTokens records LLM token usage
func (m *Client) RecordOracleTokens(model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if m == nil || !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Model"),
				Value: aws.String(model),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		counts := map[string]int{
			"OracleTokens/Total":     totalTokens,
			"OracleTokens/Input":     inputTokens,
			"OracleTokens/Output":    outputTokens,
			"OracleTokens/Reasoning": reasoningTokens,
		}
		for name, value := range counts {
			if err := m.putMetric(ctx, name, float64(value), types.StandardUnitCount, dimensions); err != nil {
				log.Printf("Failed to record %s metric: %v", name, err)
			}
		}
	}()
}

func (m *Client) putMetric(ctx context.Context, name string, value float64, unit types.StandardUnit, dimensions []types.Dimension) error {
	ctx, cancel := context.WithTimeout(ctx, cloudwatchTimeoutSeconds*time.Second)
	defer cancel()

	now := time.Now()
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(now),
				Dimensions: dimensions,
			},
		},
	})
	return err
}
