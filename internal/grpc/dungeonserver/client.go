package dungeonserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
)

// Client fetches dungeons from a remote DungeonService.
type Client struct {
	conn   *grpc.ClientConn
	client DungeonServiceClient

	SizeThreshold *int
	Keypoints     *bool
}

// Dial connects to addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial dungeon server %s: %w", addr, err)
	}
	return &Client{conn: conn, client: NewDungeonServiceClient(conn)}, nil
}

// Generate requests one dungeon. Its component is rebuilt from the received
// walls and must agree with the size the server reported.
func (c *Client) Generate(ctx context.Context) (*mapgen.Dungeon, error) {
	resp, err := c.client.Generate(ctx, NewGenerateRequest(c.SizeThreshold, c.Keypoints))
	if err != nil {
		return nil, err
	}
	d, _, err := DungeonFromStruct(resp)
	return d, err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
