package meetup

// Response is the GraphQL envelope of both query shapes.
type Response struct {
	Data   ResponseData   `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

type ResponseData struct {
	Self           *Self  `json:"self"`
	GroupByURLName *Group `json:"groupByUrlname"`
}

type GraphQLError struct {
	Message string `json:"message"`
}

// Self is the federated shape: the authenticated member's network.
type Self struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	UpcomingEvents *EventConnection `json:"upcomingEvents"`
}

// Group is the per-source shape.
type Group struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	URLName        string           `json:"urlname"`
	City           string           `json:"city"`
	Link           string           `json:"link"`
	UpcomingEvents *EventConnection `json:"upcomingEvents"`
}

type EventConnection struct {
	Count int         `json:"count"`
	Edges []EventEdge `json:"edges"`
}

type EventEdge struct {
	Node *EventNode `json:"node"`
}

type EventNode struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DateTime    string   `json:"dateTime"`
	EventURL    string   `json:"eventUrl"`
	Group       GroupRef `json:"group"`
}

type GroupRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URLName string `json:"urlname"`
	Link    string `json:"link"`
	City    string `json:"city"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}
