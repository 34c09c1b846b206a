package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhle/workhub/internal/model"
)

// Groups lists every group with its denormalized counters.
func (g *Gateway) Groups(ctx context.Context) ([]model.Group, error) {
	var out []model.Group
	if err := g.Request(ctx, "/groups/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupDetail fetches a group with its statistics and members.
func (g *Gateway) GroupDetail(ctx context.Context, id int64) (*model.GroupDetail, error) {
	var out model.GroupDetail
	if err := g.Request(ctx, fmt.Sprintf("/groups/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupInput creates or edits a group. LeaderID is optional.
type GroupInput struct {
	AdminID     int64  `json:"admin_id" validate:"gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	LeaderID    *int64 `json:"leader_id,omitempty"`
}

// GroupResult is returned after creating a group.
type GroupResult struct {
	Message string       `json:"message"`
	Group   *model.Group `json:"group,omitempty"`
}

// CreateGroup creates a group. Only admins may do this.
func (g *Gateway) CreateGroup(ctx context.Context, in GroupInput) (*GroupResult, error) {
	const endpoint = "/groups/create"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}

	var out GroupResult
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGroup edits a group's name, description or leader.
func (g *Gateway) UpdateGroup(ctx context.Context, id int64, in GroupInput) (*model.MessageResponse, error) {
	endpoint := fmt.Sprintf("/groups/%d", id)
	if err := check(http.MethodPut, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPut, endpoint, in)
}

type adminBody struct {
	AdminID int64 `json:"admin_id" validate:"gt=0"`
}

// DeleteGroup removes an empty group.
func (g *Gateway) DeleteGroup(ctx context.Context, id, adminID int64) (*model.MessageResponse, error) {
	endpoint := fmt.Sprintf("/groups/%d", id)
	in := adminBody{AdminID: adminID}
	if err := check(http.MethodDelete, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodDelete, endpoint, in)
}

// MembershipInput identifies a user joining a group directly.
type MembershipInput struct {
	UserID  int64 `json:"user_id" validate:"gt=0"`
	GroupID int64 `json:"group_id" validate:"gt=0"`
}

// JoinGroup adds the user to a group that has a leader.
func (g *Gateway) JoinGroup(ctx context.Context, in MembershipInput) (*model.MessageResponse, error) {
	const endpoint = "/groups/join"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

type leaveBody struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// LeaveGroup removes the user from their current group.
func (g *Gateway) LeaveGroup(ctx context.Context, userID int64) (*model.MessageResponse, error) {
	const endpoint = "/groups/leave"
	in := leaveBody{UserID: userID}
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// JoinRequestInput asks a group's leader for admission.
type JoinRequestInput struct {
	UserID  int64  `json:"user_id" validate:"gt=0"`
	GroupID int64  `json:"group_id" validate:"gt=0"`
	Message string `json:"message" validate:"max=500"`
}

// JoinRequestResult is returned after submitting a join request.
type JoinRequestResult struct {
	Message string             `json:"message"`
	Request *model.JoinRequest `json:"request,omitempty"`
}

// RequestJoin submits a join request.
func (g *Gateway) RequestJoin(ctx context.Context, in JoinRequestInput) (*JoinRequestResult, error) {
	const endpoint = "/groups/join-request"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}

	var out JoinRequestResult
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinRequests lists join requests visible to an admin or leader. An
// empty status means pending; "all" lists every status.
func (g *Gateway) JoinRequests(ctx context.Context, userID int64, status model.JoinRequestStatus) ([]model.JoinRequest, error) {
	if status == "" {
		status = model.JoinRequestPending
	}
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	q.Set("status", string(status))

	var out []model.JoinRequest
	if err := g.Request(ctx, "/groups/join-requests?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyJoinRequests lists the requests submitted by the user, newest first.
func (g *Gateway) MyJoinRequests(ctx context.Context, userID int64) ([]model.JoinRequest, error) {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))

	var out []model.JoinRequest
	if err := g.Request(ctx, "/groups/my-join-requests?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewInput approves or rejects a pending join request.
type ReviewInput struct {
	AdminID      int64  `json:"admin_id" validate:"gt=0"`
	AdminMessage string `json:"admin_message" validate:"max=500"`
}

// ApproveJoinRequest approves a pending request.
func (g *Gateway) ApproveJoinRequest(ctx context.Context, requestID int64, in ReviewInput) (*model.MessageResponse, error) {
	return g.review(ctx, requestID, "approve", in)
}

// RejectJoinRequest rejects a pending request.
func (g *Gateway) RejectJoinRequest(ctx context.Context, requestID int64, in ReviewInput) (*model.MessageResponse, error) {
	return g.review(ctx, requestID, "reject", in)
}

func (g *Gateway) review(ctx context.Context, requestID int64, action string, in ReviewInput) (*model.MessageResponse, error) {
	endpoint := fmt.Sprintf("/groups/join-requests/%d/%s", requestID, action)
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// MemberInput is an admin or leader action on a group member.
type MemberInput struct {
	AdminID int64 `json:"admin_id" validate:"gt=0"`
	UserID  int64 `json:"user_id" validate:"gt=0"`
	GroupID int64 `json:"group_id,omitempty"`
}

// AddMember adds an employee to a group.
func (g *Gateway) AddMember(ctx context.Context, in MemberInput) (*model.MessageResponse, error) {
	const endpoint = "/groups/add-member"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	if in.GroupID <= 0 {
		return nil, errRejected(http.MethodPost, endpoint, fmt.Errorf("group id is required"))
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// RemoveMember removes a user from their group.
func (g *Gateway) RemoveMember(ctx context.Context, in MemberInput) (*model.MessageResponse, error) {
	const endpoint = "/groups/remove-member"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// PromoteMember makes a member the leader of their group.
func (g *Gateway) PromoteMember(ctx context.Context, in MemberInput) (*model.MessageResponse, error) {
	const endpoint = "/groups/promote-member"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	if in.GroupID <= 0 {
		return nil, errRejected(http.MethodPost, endpoint, fmt.Errorf("group id is required"))
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// TransferInput moves a member to another group.
type TransferInput struct {
	AdminID       int64 `json:"admin_id" validate:"gt=0"`
	UserID        int64 `json:"user_id" validate:"gt=0"`
	TargetGroupID int64 `json:"target_group_id" validate:"gt=0"`
}

// TransferMember moves a member to the target group.
func (g *Gateway) TransferMember(ctx context.Context, in TransferInput) (*model.MessageResponse, error) {
	const endpoint = "/groups/transfer-member"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// TransferOptions lists the groups a member of currentGroupID can be moved
// to.
func (g *Gateway) TransferOptions(ctx context.Context, currentGroupID int64) ([]model.TransferOption, error) {
	var out []model.TransferOption
	if err := g.Request(ctx, fmt.Sprintf("/groups/transfer-options/%d", currentGroupID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
