// Package graphql exposes the blog operations as a GraphQL schema. The schema
// machinery itself comes from graphql-go; this package only maps operations to
// the services and domain records to response views.
package graphql

import (
	"strconv"
	"time"

	"github.com/graphql-go/graphql"

	"feeds-server/internal/apperr"
	"feeds-server/internal/auth"
	"feeds-server/internal/domain"
	"feeds-server/internal/service"
)

// User is the response view of an account. The stored password hash never
// leaves the service layer.
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`

	postIDs []int64
}

// Post is the response view of a feed entry, timestamps as RFC3339 strings.
type Post struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageURL  string `json:"imageUrl"`
	Creator   *User  `json:"creator"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// AuthData is the login result.
type AuthData struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// PostData is one page of the post listing.
type PostData struct {
	Posts      []*Post `json:"posts"`
	TotalPosts int     `json:"totalPosts"`
}

type resolver struct {
	users  service.UserService
	posts  service.PostService
	tokens *auth.TokenService
}

// NewSchema builds the executable schema over the given services.
func NewSchema(users service.UserService, posts service.PostService, tokens *auth.TokenService) (graphql.Schema, error) {
	r := &resolver{users: users, posts: posts, tokens: tokens}

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"_id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"_id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"content":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	// creator and posts form a cycle, so both fields are attached after the
	// object types exist.
	postType.AddFieldConfig("creator", &graphql.Field{
		Type: graphql.NewNonNull(userType),
	})
	userType.AddFieldConfig("posts", &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
		Resolve: r.userPosts,
	})

	authDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthData",
		Fields: graphql.Fields{
			"token":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PostData",
		Fields: graphql.Fields{
			"posts":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType)))},
			"totalPosts": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	userInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserInputData",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"name":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostInputData",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQuery",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authDataType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.login,
			},
			"posts": &graphql.Field{
				Type: graphql.NewNonNull(postDataType),
				Args: graphql.FieldConfigArgument{
					"page": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.listPosts,
			},
			"post": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.getPost,
			},
			"user": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Resolve: r.currentUser,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootMutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"userInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(userInputType)},
				},
				Resolve: r.createUser,
			},
			"createPost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"postInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(postInputType)},
				},
				Resolve: r.createPost,
			},
			"updatePost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"postInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(postInputType)},
				},
				Resolve: r.updatePost,
			},
			"deletePost": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.deletePost,
			},
			"updateStatus": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.updateStatus,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func (r *resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["userInput"].(map[string]interface{})
	user, err := r.users.Register(p.Context,
		stringArg(input, "email"),
		stringArg(input, "password"),
		stringArg(input, "name"),
	)
	if err != nil {
		return nil, err
	}
	return newUserView(user), nil
}

func (r *resolver) login(p graphql.ResolveParams) (interface{}, error) {
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	user, err := r.users.Authenticate(p.Context, email, password)
	if err != nil {
		return nil, err
	}

	token, err := r.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthData{
		Token:  token,
		UserID: strconv.FormatInt(user.ID, 10),
	}, nil
}

func (r *resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	userID, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}

	post, err := r.posts.Create(p.Context, userID, postInputArg(p))
	if err != nil {
		return nil, err
	}
	return newPostView(post), nil
}

func (r *resolver) listPosts(p graphql.ResolveParams) (interface{}, error) {
	userID, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return nil, apperr.Unauthorized("User not found!")
	}

	page := 1
	if v, ok := p.Args["page"].(int); ok {
		page = v
	}

	result, err := r.posts.List(p.Context, userID, page)
	if err != nil {
		return nil, err
	}

	posts := make([]*Post, 0, len(result.Posts))
	for i := range result.Posts {
		posts = append(posts, newPostView(&result.Posts[i]))
	}
	return &PostData{Posts: posts, TotalPosts: result.TotalPosts}, nil
}

func (r *resolver) getPost(p graphql.ResolveParams) (interface{}, error) {
	userID, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return nil, apperr.Unauthorized("User not found!")
	}

	id, err := postIDArg(p)
	if err != nil {
		return nil, err
	}

	post, err := r.posts.Get(p.Context, userID, id)
	if err != nil {
		return nil, err
	}
	return newPostView(post), nil
}

func (r *resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	userID, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}

	id, err := postIDArg(p)
	if err != nil {
		return nil, err
	}

	post, err := r.posts.Update(p.Context, userID, id, postInputArg(p))
	if err != nil {
		return nil, err
	}
	return newPostView(post), nil
}

func (r *resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	userID, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}

	id, err := postIDArg(p)
	if err != nil {
		return nil, err
	}

	deleted, err := r.posts.Delete(p.Context, userID, id)
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *resolver) currentUser(p graphql.ResolveParams) (interface{}, error) {
	userID, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}

	user, err := r.users.GetByID(p.Context, userID)
	if err != nil {
		return nil, err
	}
	return newUserView(user), nil
}

func (r *resolver) updateStatus(p graphql.ResolveParams) (interface{}, error) {
	userID, err := requireIdentity(p)
	if err != nil {
		return nil, err
	}

	status, _ := p.Args["status"].(string)
	user, err := r.users.UpdateStatus(p.Context, userID, status)
	if err != nil {
		return nil, err
	}
	return newUserView(user), nil
}

// userPosts resolves the posts field on User lazily from the owner's post list.
func (r *resolver) userPosts(p graphql.ResolveParams) (interface{}, error) {
	user, ok := p.Source.(*User)
	if !ok {
		return []*Post{}, nil
	}
	if len(user.postIDs) == 0 {
		return []*Post{}, nil
	}

	userID, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return nil, apperr.Unauthorized("Not authenticated!")
	}

	posts := make([]*Post, 0, len(user.postIDs))
	for _, id := range user.postIDs {
		post, err := r.posts.Get(p.Context, userID, id)
		if err != nil {
			return nil, err
		}
		posts = append(posts, newPostView(post))
	}
	return posts, nil
}

func requireIdentity(p graphql.ResolveParams) (int64, error) {
	userID, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return 0, apperr.Unauthorized("Not authenticated!")
	}
	return userID, nil
}

func postIDArg(p graphql.ResolveParams) (int64, error) {
	raw, _ := p.Args["id"].(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Post not found!")
	}
	return id, nil
}

func postInputArg(p graphql.ResolveParams) service.PostInput {
	input, _ := p.Args["postInput"].(map[string]interface{})
	return service.PostInput{
		Title:    stringArg(input, "title"),
		Content:  stringArg(input, "content"),
		ImageURL: stringArg(input, "imageUrl"),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func newUserView(user *domain.User) *User {
	if user == nil {
		return nil
	}
	return &User{
		ID:      strconv.FormatInt(user.ID, 10),
		Name:    user.Name,
		Email:   user.Email,
		Status:  user.Status,
		postIDs: user.Posts,
	}
}

func newPostView(post *domain.Post) *Post {
	if post == nil {
		return nil
	}
	return &Post{
		ID:        strconv.FormatInt(post.ID, 10),
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Creator:   newUserView(post.Creator),
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}
