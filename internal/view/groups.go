package view

import (
	"context"
	"errors"
	"log"
	"slices"
	"strconv"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
)

// ErrLeaderTransfer is returned when asked to transfer a group's leader.
var ErrLeaderTransfer = errors.New("cannot transfer group leader")

const (
	msgLoadGroupsFailed  = "Failed to load groups"
	msgLoadDetailFailed  = "Failed to load group details"
	msgNotInGroup        = "You are not in any group"
	msgLeaderTransfer    = "Cannot transfer group leader. Remove as leader first or promote another member to leader."
	msgLoadEmployeesFail = "Failed to load available employees"
	msgLoadTransferFail  = "Failed to load transfer options"
)

// Load keys.
const (
	keyGroups  = "groups"
	keyLeaders = "leaders"
	keyPending = "pending"
	keyMine    = "mine"
	keyDetail  = "detail"
)

// GroupsAPI is the Gateway surface used by the groups screen.
type GroupsAPI interface {
	Groups(ctx context.Context) ([]model.Group, error)
	GroupDetail(ctx context.Context, id int64) (*model.GroupDetail, error)
	CreateGroup(ctx context.Context, in api.GroupInput) (*api.GroupResult, error)
	UpdateGroup(ctx context.Context, id int64, in api.GroupInput) (*model.MessageResponse, error)
	DeleteGroup(ctx context.Context, id, adminID int64) (*model.MessageResponse, error)
	JoinGroup(ctx context.Context, in api.MembershipInput) (*model.MessageResponse, error)
	LeaveGroup(ctx context.Context, userID int64) (*model.MessageResponse, error)
	RequestJoin(ctx context.Context, in api.JoinRequestInput) (*api.JoinRequestResult, error)
	JoinRequests(ctx context.Context, userID int64, status model.JoinRequestStatus) ([]model.JoinRequest, error)
	MyJoinRequests(ctx context.Context, userID int64) ([]model.JoinRequest, error)
	ApproveJoinRequest(ctx context.Context, requestID int64, in api.ReviewInput) (*model.MessageResponse, error)
	RejectJoinRequest(ctx context.Context, requestID int64, in api.ReviewInput) (*model.MessageResponse, error)
	AddMember(ctx context.Context, in api.MemberInput) (*model.MessageResponse, error)
	RemoveMember(ctx context.Context, in api.MemberInput) (*model.MessageResponse, error)
	PromoteMember(ctx context.Context, in api.MemberInput) (*model.MessageResponse, error)
	TransferMember(ctx context.Context, in api.TransferInput) (*model.MessageResponse, error)
	TransferOptions(ctx context.Context, currentGroupID int64) ([]model.TransferOption, error)
	Employees(ctx context.Context) ([]model.User, error)
	AvailableLeaders(ctx context.Context) ([]model.User, error)
}

// GroupCache persists the group list for offline start.
type GroupCache interface {
	SaveGroups(ctx context.Context, userID int64, groups []model.Group) error
	LoadGroups(ctx context.Context, userID int64) ([]model.Group, error)
}

// GroupsSnapshot is a copy of the groups screen state.
type GroupsSnapshot struct {
	// Groups is the filtered and sorted list.
	Groups   []model.Group
	All      int
	Criteria GroupCriteria
	Leaders  []model.User
	Pending  []model.JoinRequest
	Mine     []model.JoinRequest
	Detail   *model.GroupDetail
}

// GroupsController drives the groups screen.
type GroupsController struct {
	base
	api   GroupsAPI
	cache GroupCache

	mu       gosync.Mutex
	groups   []model.Group
	criteria GroupCriteria
	leaders  []model.User
	pending  []model.JoinRequest
	mine     []model.JoinRequest
	detail   *model.GroupDetail
}

// NewGroupsController creates a controller. cache may be nil.
func NewGroupsController(client GroupsAPI, session Session, alerts Alerter, cache GroupCache, opts ...Option) *GroupsController {
	c := &GroupsController{api: client, cache: cache}
	c.base.init(session, alerts, opts)
	return c
}

// Mount starts the view lifecycle, shows cached groups and loads fresh
// data.
func (c *GroupsController) Mount(ctx context.Context) error {
	c.life.mount(ctx)
	c.primeFromCache(ctx)
	return c.Load(ctx)
}

// Unmount cancels in-flight requests; their responses are discarded.
func (c *GroupsController) Unmount() {
	c.life.unmount()
}

// Load re-fetches the group list and the role-dependent secondary lists:
// available leaders and pending requests for admins and leaders, the
// user's own requests for employees.
func (c *GroupsController) Load(ctx context.Context) error {
	sess := c.session.Current()
	if sess == nil {
		return nil
	}

	var g errgroup.Group
	g.Go(func() error { return c.loadGroups(ctx) })
	if sess.CanManageGroups() {
		g.Go(func() error { return c.loadLeaders(ctx) })
		g.Go(func() error { return c.loadPending(ctx) })
	} else {
		g.Go(func() error { return c.loadMine(ctx) })
	}
	return g.Wait()
}

// ApplyFilter stores c and returns the filtered list. It never touches
// the network or the loaded groups.
func (c *GroupsController) ApplyFilter(criteria GroupCriteria) []model.Group {
	c.mu.Lock()
	c.criteria = criteria
	out := FilterGroups(c.groups, criteria)
	c.mu.Unlock()

	c.changed()
	return out
}

// Snapshot returns a copy of the screen state.
func (c *GroupsController) Snapshot() GroupsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := GroupsSnapshot{
		Groups:   FilterGroups(c.groups, c.criteria),
		All:      len(c.groups),
		Criteria: c.criteria,
		Leaders:  slices.Clone(c.leaders),
		Pending:  slices.Clone(c.pending),
		Mine:     slices.Clone(c.mine),
	}
	if c.detail != nil {
		d := *c.detail
		d.Members = slices.Clone(c.detail.Members)
		snap.Detail = &d
	}
	return snap
}

// Group returns the loaded group with the given id.
func (c *GroupsController) Group(id int64) (model.Group, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.groups {
		if g.ID == id {
			return g, true
		}
	}
	return model.Group{}, false
}

// CreateGroup creates a group and refreshes the list and leaders.
func (c *GroupsController) CreateGroup(ctx context.Context, name, description string, leaderID *int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.GroupInput{AdminID: sess.UserID, Name: name, Description: description, LeaderID: leaderID}
	return c.mutate(ctx, "Group created successfully", "Failed to save group",
		func(ctx context.Context) (string, error) {
			res, err := c.api.CreateGroup(ctx, in)
			if err != nil {
				return "", err
			}
			return res.Message, nil
		},
		c.reloader(keyGroups, keyLeaders),
	)
}

// EditGroup updates a group and refreshes the list, leaders and, when
// open, its detail.
func (c *GroupsController) EditGroup(ctx context.Context, id int64, name, description string, leaderID *int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.GroupInput{AdminID: sess.UserID, Name: name, Description: description, LeaderID: leaderID}
	return c.mutate(ctx, "Group updated successfully", "Failed to save group",
		func(ctx context.Context) (string, error) {
			return message(c.api.UpdateGroup(ctx, id, in))
		},
		c.reloader(keyGroups, keyLeaders, keyDetail),
	)
}

// DeleteGroup removes an empty group.
func (c *GroupsController) DeleteGroup(ctx context.Context, id int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	return c.mutate(ctx, "Group deleted successfully", "Failed to delete group",
		func(ctx context.Context) (string, error) {
			return message(c.api.DeleteGroup(ctx, id, sess.UserID))
		},
		func(ctx context.Context) {
			c.mu.Lock()
			if c.detail != nil && c.detail.ID == id {
				c.detail = nil
			}
			c.mu.Unlock()
			c.reloader(keyGroups, keyLeaders)(ctx)
		},
	)
}

// Join adds the current user to a group and records the membership in
// the session.
func (c *GroupsController) Join(ctx context.Context, groupID int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.MembershipInput{UserID: sess.UserID, GroupID: groupID}
	return c.mutate(ctx, "Joined group successfully", "Failed to join group",
		func(ctx context.Context) (string, error) {
			return message(c.api.JoinGroup(ctx, in))
		},
		func(ctx context.Context) {
			c.patchGroup(c.groupRef(groupID))
			c.reloader(keyGroups)(ctx)
		},
	)
}

// Leave removes the current user from their group.
func (c *GroupsController) Leave(ctx context.Context) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	if sess.Group == nil {
		c.alerts.Show(alert.Warning, msgNotInGroup)
		return nil
	}
	return c.mutate(ctx, "Left group successfully", "Failed to leave group",
		func(ctx context.Context) (string, error) {
			return message(c.api.LeaveGroup(ctx, sess.UserID))
		},
		func(ctx context.Context) {
			c.patchGroup(nil)
			c.reloader(keyGroups)(ctx)
		},
	)
}

// RequestJoin asks to join a group and refreshes the user's requests.
func (c *GroupsController) RequestJoin(ctx context.Context, groupID int64, note string) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.JoinRequestInput{UserID: sess.UserID, GroupID: groupID, Message: note}
	okMsg := "Join request sent successfully!"
	if g, ok := c.Group(groupID); ok {
		okMsg = "Join request sent for \"" + g.Name + "\" successfully!"
	}
	return c.mutate(ctx, okMsg, "Failed to send join request",
		func(ctx context.Context) (string, error) {
			if _, err := c.api.RequestJoin(ctx, in); err != nil {
				return "", err
			}
			return okMsg, nil
		},
		c.reloader(keyMine, keyGroups),
	)
}

// Approve approves a pending join request.
func (c *GroupsController) Approve(ctx context.Context, requestID int64, note string) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.ReviewInput{AdminID: sess.UserID, AdminMessage: note}
	okMsg := c.reviewMessage(requestID, "'s request approved successfully", "Request approved successfully")
	return c.mutate(ctx, okMsg, "Failed to approve request",
		func(ctx context.Context) (string, error) {
			if _, err := c.api.ApproveJoinRequest(ctx, requestID, in); err != nil {
				return "", err
			}
			return okMsg, nil
		},
		c.reloader(keyGroups, keyPending),
	)
}

// Reject rejects a pending join request.
func (c *GroupsController) Reject(ctx context.Context, requestID int64, note string) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.ReviewInput{AdminID: sess.UserID, AdminMessage: note}
	okMsg := c.reviewMessage(requestID, "'s request rejected", "Request rejected")

	reqCtx, done, ok := c.life.request(ctx)
	if !ok {
		return ErrNotMounted
	}
	defer done()

	c.setBusy(true)
	defer c.setBusy(false)

	if _, err := c.api.RejectJoinRequest(reqCtx, requestID, in); err != nil {
		c.fail(err, "Failed to reject request")
		return err
	}
	c.alerts.Show(alert.Info, okMsg)
	c.reloader(keyPending)(reqCtx)
	return nil
}

// AddMember adds an employee to groupID.
func (c *GroupsController) AddMember(ctx context.Context, groupID, userID int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.MemberInput{AdminID: sess.UserID, UserID: userID, GroupID: groupID}
	return c.mutate(ctx, "Member added successfully", "Failed to add member",
		func(ctx context.Context) (string, error) {
			return message(c.api.AddMember(ctx, in))
		},
		c.reloader(keyGroups, keyDetail),
	)
}

// RemoveMember removes a user from their group. Removing oneself clears
// the session's group.
func (c *GroupsController) RemoveMember(ctx context.Context, userID int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.MemberInput{AdminID: sess.UserID, UserID: userID}
	return c.mutate(ctx, "Member removed successfully", "Failed to remove member",
		func(ctx context.Context) (string, error) {
			return message(c.api.RemoveMember(ctx, in))
		},
		func(ctx context.Context) {
			if userID == sess.UserID {
				c.patchGroup(nil)
			}
			c.reloader(keyGroups, keyLeaders, keyDetail)(ctx)
		},
	)
}

// Promote makes a member the leader of groupID.
func (c *GroupsController) Promote(ctx context.Context, groupID, userID int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	in := api.MemberInput{AdminID: sess.UserID, UserID: userID, GroupID: groupID}
	return c.mutate(ctx, "Member promoted successfully", "Failed to promote member",
		func(ctx context.Context) (string, error) {
			return message(c.api.PromoteMember(ctx, in))
		},
		c.reloader(keyGroups, keyLeaders, keyDetail),
	)
}

// Transfer moves a member to another group. The leader of the open group
// cannot be transferred. Transferring oneself updates the session.
func (c *GroupsController) Transfer(ctx context.Context, userID, targetGroupID int64) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}

	c.mu.Lock()
	leaderMoving := c.detail != nil && c.detail.Leader != nil && c.detail.Leader.ID == userID
	c.mu.Unlock()
	if leaderMoving {
		c.alerts.Show(alert.Warning, msgLeaderTransfer)
		return ErrLeaderTransfer
	}

	in := api.TransferInput{AdminID: sess.UserID, UserID: userID, TargetGroupID: targetGroupID}
	return c.mutate(ctx, "Member transferred successfully", "Failed to transfer member",
		func(ctx context.Context) (string, error) {
			return message(c.api.TransferMember(ctx, in))
		},
		func(ctx context.Context) {
			if userID == sess.UserID {
				c.patchGroup(c.groupRef(targetGroupID))
			}
			c.reloader(keyGroups, keyDetail)(ctx)
		},
	)
}

// ViewDetail loads a group's detail and keeps it as the open detail.
func (c *GroupsController) ViewDetail(ctx context.Context, groupID int64) (*model.GroupDetail, error) {
	var out *model.GroupDetail
	err := load(&c.base, ctx, keyDetail,
		func(ctx context.Context) (*model.GroupDetail, error) {
			return c.api.GroupDetail(ctx, groupID)
		},
		func(d *model.GroupDetail) {
			c.mu.Lock()
			c.detail = d
			c.mu.Unlock()
			out = d
		},
	)
	if err != nil {
		c.fail(err, msgLoadDetailFailed)
		return nil, err
	}
	return out, nil
}

// CloseDetail forgets the open detail.
func (c *GroupsController) CloseDetail() {
	c.mu.Lock()
	c.detail = nil
	c.mu.Unlock()
	c.changed()
}

// TransferOptions lists the groups a member of groupID can move to.
func (c *GroupsController) TransferOptions(ctx context.Context, groupID int64) ([]model.TransferOption, error) {
	reqCtx, done, ok := c.life.request(ctx)
	if !ok {
		return nil, ErrNotMounted
	}
	defer done()

	opts, err := c.api.TransferOptions(reqCtx, groupID)
	if err != nil {
		c.fail(err, msgLoadTransferFail)
		return nil, err
	}
	return opts, nil
}

// AvailableEmployees lists employees that are not in any group.
func (c *GroupsController) AvailableEmployees(ctx context.Context) ([]model.User, error) {
	reqCtx, done, ok := c.life.request(ctx)
	if !ok {
		return nil, ErrNotMounted
	}
	defer done()

	employees, err := c.api.Employees(reqCtx)
	if err != nil {
		c.fail(err, msgLoadEmployeesFail)
		return nil, err
	}

	var out []model.User
	for _, e := range employees {
		if e.Group == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *GroupsController) loadGroups(ctx context.Context) error {
	err := load(&c.base, ctx, keyGroups, c.api.Groups, func(groups []model.Group) {
		c.mu.Lock()
		c.groups = groups
		c.mu.Unlock()
		c.saveCache(ctx, groups)
	})
	if err != nil {
		c.fail(err, msgLoadGroupsFailed)
	}
	return err
}

func (c *GroupsController) loadLeaders(ctx context.Context) error {
	return load(&c.base, ctx, keyLeaders, c.api.AvailableLeaders, func(users []model.User) {
		c.mu.Lock()
		c.leaders = users
		c.mu.Unlock()
	})
}

func (c *GroupsController) loadPending(ctx context.Context) error {
	sess := c.session.Current()
	if sess == nil {
		return nil
	}
	return load(&c.base, ctx, keyPending,
		func(ctx context.Context) ([]model.JoinRequest, error) {
			return c.api.JoinRequests(ctx, sess.UserID, model.JoinRequestPending)
		},
		func(reqs []model.JoinRequest) {
			c.mu.Lock()
			c.pending = reqs
			c.mu.Unlock()
		},
	)
}

func (c *GroupsController) loadMine(ctx context.Context) error {
	sess := c.session.Current()
	if sess == nil {
		return nil
	}
	return load(&c.base, ctx, keyMine,
		func(ctx context.Context) ([]model.JoinRequest, error) {
			return c.api.MyJoinRequests(ctx, sess.UserID)
		},
		func(reqs []model.JoinRequest) {
			c.mu.Lock()
			c.mine = reqs
			c.mu.Unlock()
		},
	)
}

// reloader returns a follow-up that refreshes the given loads
// concurrently. Failures are already surfaced by each load.
func (c *GroupsController) reloader(keys ...string) func(ctx context.Context) {
	return func(ctx context.Context) {
		var g errgroup.Group
		for _, key := range keys {
			switch key {
			case keyGroups:
				g.Go(func() error { return c.loadGroups(ctx) })
			case keyLeaders:
				g.Go(func() error { return c.loadLeaders(ctx) })
			case keyPending:
				g.Go(func() error { return c.loadPending(ctx) })
			case keyMine:
				g.Go(func() error { return c.loadMine(ctx) })
			case keyDetail:
				c.mu.Lock()
				open := c.detail
				c.mu.Unlock()
				if open != nil {
					id := open.ID
					g.Go(func() error {
						_, err := c.ViewDetail(ctx, id)
						return err
					})
				}
			}
		}
		if err := g.Wait(); err != nil {
			log.Printf("view: refreshing after mutation: %v", err)
		}
	}
}

func (c *GroupsController) reviewMessage(requestID int64, suffix, fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.pending {
		if r.ID == requestID && r.User != nil {
			return r.User.Name + suffix
		}
	}
	return fallback
}

// groupRef builds the session group for groupID from the loaded list.
func (c *GroupsController) groupRef(groupID int64) *model.GroupRef {
	if g, ok := c.Group(groupID); ok {
		return &model.GroupRef{ID: g.ID, Name: g.Name}
	}
	return &model.GroupRef{ID: groupID}
}

func (c *GroupsController) patchGroup(ref *model.GroupRef) {
	if err := c.session.PatchGroup(ref); err != nil {
		log.Printf("view: updating session group: %v", err)
	}
}

func (c *GroupsController) primeFromCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	sess := c.session.Current()
	if sess == nil {
		return
	}
	groups, err := c.cache.LoadGroups(ctx, sess.UserID)
	if err != nil {
		log.Printf("view: reading cached groups: %v", err)
		return
	}
	if len(groups) == 0 {
		return
	}

	c.mu.Lock()
	c.groups = groups
	c.mu.Unlock()
	c.changed()
}

func (c *GroupsController) saveCache(ctx context.Context, groups []model.Group) {
	if c.cache == nil {
		return
	}
	sess := c.session.Current()
	if sess == nil {
		return
	}
	if err := c.cache.SaveGroups(ctx, sess.UserID, groups); err != nil {
		log.Printf("view: caching groups: %v", err)
	}
}

// load fetches one resource under key and applies it only if it is still
// the newest load for that key and the view is still mounted.
func load[T any](b *base, ctx context.Context, key string, fetch func(context.Context) (T, error), apply func(T)) error {
	reqCtx, done, ok := b.life.request(ctx)
	if !ok {
		return ErrNotMounted
	}
	defer done()

	gen := b.life.begin(key)
	v, err := fetch(reqCtx)
	if !b.life.current(key, gen) {
		return nil
	}
	if err != nil {
		return err
	}

	apply(v)
	b.changed()
	return nil
}

func message(res *model.MessageResponse, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
