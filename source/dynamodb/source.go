// Package dynamodb loads dictionary rows by scanning a DynamoDB table.
//
// The structure's key names the partition key attribute, which must hold an
// unsigned integer (N, or S with a decimal string). Declared attributes are
// read from N and S members; NULL and missing attributes take the
// attribute's null value.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/flatdict"
)

// Source scans one table. It implements flatdict.Source.
type Source struct {
	client         dynamodb.ScanAPIClient
	table          string
	structure      *flatdict.Structure
	pageSize       int32
	consistentRead bool
}

// Option configures a Source.
type Option func(*Source)

// WithPageSize sets the Scan page limit.
func WithPageSize(n int32) Option {
	return func(s *Source) { s.pageSize = n }
}

// WithConsistentRead requests strongly consistent reads.
func WithConsistentRead(enabled bool) Option {
	return func(s *Source) { s.consistentRead = enabled }
}

// New creates a Source scanning table with client.
func New(client dynamodb.ScanAPIClient, table string, structure *flatdict.Structure, opts ...Option) *Source {
	s := &Source{
		client:    client,
		table:     table,
		structure: structure,
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// NewFromConfig creates a Source with a client built from the default AWS
// configuration chain.
func NewFromConfig(ctx context.Context, table string, structure *flatdict.Structure, opts ...Option) (*Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table, structure, opts...), nil
}

// Table returns the scanned table name.
func (s *Source) Table() string { return s.table }

// scanInput projects the key and the declared attributes only.
func (s *Source) scanInput() *dynamodb.ScanInput {
	attrs := s.structure.Attributes()
	names := make(map[string]string, len(attrs)+1)
	proj := make([]string, 0, len(attrs)+1)

	names["#k"] = s.structure.Key()
	proj = append(proj, "#k")
	for i, a := range attrs {
		ph := "#a" + strconv.Itoa(i)
		names[ph] = a.Name
		proj = append(proj, ph)
	}

	in := &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		ProjectionExpression:     aws.String(strings.Join(proj, ", ")),
		ExpressionAttributeNames: names,
	}
	if s.consistentRead {
		in.ConsistentRead = aws.Bool(true)
	}
	if s.pageSize > 0 {
		in.Limit = aws.Int32(s.pageSize)
	}
	return in
}

// Rows implements flatdict.Source.
func (s *Source) Rows(ctx context.Context) iter.Seq2[flatdict.Row, error] {
	return func(yield func(flatdict.Row, error) bool) {
		attrs := s.structure.Attributes()
		p := dynamodb.NewScanPaginator(s.client, s.scanInput())

		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield(flatdict.Row{}, fmt.Errorf("dynamodb: scan %s: %w", s.table, err))
				return
			}
			for _, item := range page.Items {
				row, err := s.convertItem(item, attrs)
				if err != nil {
					yield(flatdict.Row{}, fmt.Errorf("dynamodb: %s: %w", s.table, err))
					return
				}
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

func (s *Source) convertItem(item map[string]types.AttributeValue, attrs []flatdict.AttributeDescriptor) (flatdict.Row, error) {
	id, err := keyOf(item[s.structure.Key()])
	if err != nil {
		return flatdict.Row{}, fmt.Errorf("key %q: %w", s.structure.Key(), err)
	}

	row := flatdict.Row{ID: id, Values: make([]flatdict.Value, len(attrs))}
	for i, a := range attrs {
		v, err := convert(item[a.Name], a.Kind)
		if err != nil {
			return flatdict.Row{}, fmt.Errorf("id %d attribute %q: %w", id, a.Name, err)
		}
		row.Values[i] = v
	}
	return row, nil
}

func keyOf(av types.AttributeValue) (flatdict.Key, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		return strconv.ParseUint(v.Value, 10, 64)
	case *types.AttributeValueMemberS:
		return strconv.ParseUint(v.Value, 10, 64)
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", av)
	}
}

// convert maps one attribute value to kind k.
func convert(av types.AttributeValue, k flatdict.ValueKind) (flatdict.Value, error) {
	switch v := av.(type) {
	case nil, *types.AttributeValueMemberNULL:
		return flatdict.Absent(), nil
	case *types.AttributeValueMemberN:
		return flatdict.ParseValue(k, v.Value)
	case *types.AttributeValueMemberS:
		return flatdict.ParseValue(k, v.Value)
	default:
		return flatdict.Value{}, fmt.Errorf("unsupported type %T", av)
	}
}
