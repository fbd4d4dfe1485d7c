package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// latLngField resolves an optional [lat, lng] pair as a list of floats.
func latLngField(get func(domain.Segment) domain.LatLng) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(graphql.Float),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			seg, ok := p.Source.(domain.Segment)
			if !ok {
				return nil, nil
			}
			ll := get(seg)
			if !ll.Valid() {
				return nil, nil
			}
			return []float64{ll.Lat(), ll.Lng()}, nil
		},
	}
}

// requireSession returns the session attached to a resolver context.
func requireSession(ctx context.Context) (*domain.Session, error) {
	if sess := sessionFromCtx(ctx); sess != nil {
		return sess, nil
	}
	return nil, domain.ErrNoToken
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"latitude":        &graphql.Field{Type: graphql.Float},
			"longitude":       &graphql.Field{Type: graphql.Float},
			"latitude_delta":  &graphql.Field{Type: graphql.Float},
			"longitude_delta": &graphql.Field{Type: graphql.Float},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Segment",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.ID},
			"name":           &graphql.Field{Type: graphql.String},
			"distance":       &graphql.Field{Type: graphql.Float},
			"average_grade":  &graphql.Field{Type: graphql.Float},
			"maximum_grade":  &graphql.Field{Type: graphql.Float},
			"elevation_high": &graphql.Field{Type: graphql.Float},
			"elevation_low":  &graphql.Field{Type: graphql.Float},
			"climb_category": &graphql.Field{Type: graphql.Int},
			"city":           &graphql.Field{Type: graphql.String},
			"country":        &graphql.Field{Type: graphql.String},
			"start_latlng":   latLngField(func(s domain.Segment) domain.LatLng { return s.StartLatLng }),
			"end_latlng":     latLngField(func(s domain.Segment) domain.LatLng { return s.EndLatLng }),
			"polyline": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if seg, ok := p.Source.(domain.Segment); ok {
						return seg.Polyline(), nil
					}
					return nil, nil
				},
			},
		},
	})

	userRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UserRoute",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"totalDistance": &graphql.Field{Type: graphql.Float},
			"totalDuration": &graphql.Field{Type: graphql.Float},
			"segmentCount":  &graphql.Field{Type: graphql.Int},
			"createdAt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if r, ok := p.Source.(domain.UserRoute); ok && !r.CreatedAt.IsZero() {
						return r.CreatedAt.UTC().Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
		},
	})

	endpointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SegmentEndpoints",
		Fields: graphql.InputObjectConfigFieldMap{
			"start_latlng": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
			"end_latlng":   &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"decodePolyline": &graphql.Field{
				Type: graphql.NewList(coordinateType),
				Args: graphql.FieldConfigArgument{
					"polyline":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"precision": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					encoded, _ := p.Args["polyline"].(string)
					precision, _ := p.Args["precision"].(int)
					return deps.Geometry.Decode(encoded, precision)
				},
			},
			"mapRegion": &graphql.Field{
				Type: regionType,
				Args: graphql.FieldConfigArgument{
					"segments": &graphql.ArgumentConfig{Type: graphql.NewList(endpointInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["segments"].([]interface{})
					segs := make([]domain.Segment, 0, len(raw))
					for _, r := range raw {
						m, _ := r.(map[string]interface{})
						segs = append(segs, domain.Segment{
							StartLatLng: latLngArg(m["start_latlng"]),
							EndLatLng:   latLngArg(m["end_latlng"]),
						})
					}
					return deps.Geometry.Region(segs), nil
				},
			},
			"starredSegments": &graphql.Field{
				Type: graphql.NewList(segmentType),
				Args: graphql.FieldConfigArgument{
					"refresh": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := requireSession(p.Context)
					if err != nil {
						return nil, err
					}
					refresh, _ := p.Args["refresh"].(bool)
					return deps.Segments.Starred(p.Context, sess, refresh)
				},
			},
			"userRoutes": &graphql.Field{
				Type: graphql.NewList(userRouteType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := requireSession(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Routes.UserRoutes(p.Context, sess)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// latLngArg converts a GraphQL [Float] argument into a pair. Anything other
// than exactly two numbers counts as absent.
func latLngArg(v interface{}) domain.LatLng {
	list, ok := v.([]interface{})
	if !ok || len(list) != 2 {
		return nil
	}
	lat, ok1 := list[0].(float64)
	lng, ok2 := list[1].(float64)
	if !ok1 || !ok2 {
		return nil
	}
	return domain.LatLng{lat, lng}
}

// GraphQLHandler serves the GraphQL endpoint. A bearer session is optional;
// fields that need one fail individually without it.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := c.UserContext()
		if id := sessionID(c); id != "" {
			sess, err := deps.Auth.Resolve(ctx, id)
			if err != nil {
				return errFrom(c, err)
			}
			ctx = withSession(ctx, sess)
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
