package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"go.uber.org/zap"

	"hostpool/internal/config"
)

// route53Driver realizes a move in DNS: each host has a CNAME
// <host>.<domain> pointing at <cloud>.<domain>, and a move upserts it to the
// new cloud's record.
type route53Driver struct {
	client *route53.Client
	zoneID string
	domain string
	ttl    int64
	logger *zap.Logger
}

func newRoute53(cfg *config.Config, logger *zap.Logger) (Driver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.AWS.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AWS.AccessKeyID,
				cfg.AWS.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &route53Driver{
		client: route53.NewFromConfig(awsCfg),
		zoneID: cfg.AWS.HostedZoneID,
		domain: cfg.AWS.Domain,
		ttl:    cfg.AWS.TTL,
		logger: logger,
	}, nil
}

func (d *route53Driver) ApplyAssignment(ctx context.Context, host, from, to string) error {
	name := fmt.Sprintf("%s.%s", host, d.domain)
	target := fmt.Sprintf("%s.%s", to, d.domain)

	_, err := d.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(d.zoneID),
		ChangeBatch: &types.ChangeBatch{
			Comment: aws.String(fmt.Sprintf("hostpool move %s: %s -> %s", host, from, to)),
			Changes: []types.Change{
				{
					Action: types.ChangeActionUpsert,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(name),
						Type: types.RRTypeCname,
						TTL:  aws.Int64(d.ttl),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(target)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("route53 upsert for %s: %w", host, err)
	}

	d.logger.Info("route53 record updated",
		zap.String("record", name), zap.String("target", target))
	return nil
}
