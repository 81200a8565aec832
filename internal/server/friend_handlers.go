package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.GetFriends(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"friends": friends})
}

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	request, err := s.friendService.SendFriendRequest(c.Context(), currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetPendingRequests(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetSentRequests(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}
	request, err := s.friendService.AcceptFriendRequest(c.Context(), currentUserID(c), requestID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}
	request, err := s.friendService.RejectFriendRequest(c.Context(), currentUserID(c), requestID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.friendService.RemoveFriend(c.Context(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetWatchList handles GET /api/friends/watching
func (s *Server) GetWatchList(c *fiber.Ctx) error {
	ids, err := s.friendService.GetWatchedIDs(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return c.JSON(fiber.Map{"watching": ids})
}

// WatchFriend handles POST /api/friends/:userId/watch
func (s *Server) WatchFriend(c *fiber.Ctx) error {
	friendID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.friendService.Watch(c.Context(), currentUserID(c), friendID); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"watching": true})
}

// UnwatchFriend handles DELETE /api/friends/:userId/watch
func (s *Server) UnwatchFriend(c *fiber.Ctx) error {
	friendID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.friendService.Unwatch(c.Context(), currentUserID(c), friendID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
