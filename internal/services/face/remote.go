package face

import (
	"context"
	"fmt"
	"image"
	"io"
	"net"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/amosjerbi/facemoji/internal/geometry"
)

// RemoteDetector talks to an out-of-process detection service over a unix
// socket. Requests and responses are msgpack-encoded; the frame travels as
// raw RGB bytes so the service side needs no image decoding.
type RemoteDetector struct {
	socketPath string
	timeout    time.Duration
}

// remoteRequest is sent to the detection service.
type remoteRequest struct {
	Height int    `msgpack:"h"`
	Width  int    `msgpack:"w"`
	Data   []byte `msgpack:"d"` // RGB uint8, row-major, shape (H, W, 3)
}

// remoteDetection is one face from the service, with up to five landmark
// points flattened as [x1,y1, x2,y2, x3,y3, x4,y4, x5,y5].
type remoteDetection struct {
	X          float32   `msgpack:"x"`
	Y          float32   `msgpack:"y"`
	Width      float32   `msgpack:"w"`
	Height     float32   `msgpack:"h"`
	Confidence float32   `msgpack:"c"`
	Landmarks  []float32 `msgpack:"l"`
}

type remoteResponse struct {
	Detections  []remoteDetection `msgpack:"detections"`
	InferenceMs float32           `msgpack:"inference_ms"`
}

// NewRemoteDetector creates a client for a detection service listening on
// the given unix socket.
func NewRemoteDetector(socketPath string, timeout time.Duration) *RemoteDetector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteDetector{socketPath: socketPath, timeout: timeout}
}

// DetectRaw sends the frame to the service and maps its detections into
// source-coordinate boxes with named landmarks.
func (d *RemoteDetector) DetectRaw(ctx context.Context, img image.Image) ([]RawDetection, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	dialer := net.Dialer{Timeout: d.timeout}
	conn, err := dialer.DialContext(ctx, "unix", d.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to detection service: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(d.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)

	req := remoteRequest{
		Height: height,
		Width:  width,
		Data:   flattenRGB(img),
	}
	reqData, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	respData, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp remoteResponse
	if err := msgpack.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]RawDetection, 0, len(resp.Detections))
	for _, det := range resp.Detections {
		box := geometry.RectXYWH(det.X, det.Y, det.Width, det.Height)
		if !plausibleFace(box, width, height) {
			continue
		}
		results = append(results, RawDetection{
			Box:        box,
			Landmarks:  namedLandmarks(det.Landmarks),
			Confidence: det.Confidence,
		})
	}
	return results, nil
}

// namedLandmarks converts the flat five-point layout (right eye, left eye,
// nose tip, right mouth corner, left mouth corner) into named landmarks.
// Short arrays yield whatever prefix is present.
func namedLandmarks(flat []float32) map[Landmark]geometry.Point {
	var points [5]geometry.Point
	n := 0
	for j := 0; j < 5 && j*2+1 < len(flat); j++ {
		points[j] = geometry.Point{X: flat[j*2], Y: flat[j*2+1]}
		n = j + 1
	}
	if n == 0 {
		return nil
	}

	landmarks := make(map[Landmark]geometry.Point, 4)
	if n >= 1 {
		landmarks[LandmarkRightEye] = points[0]
	}
	if n >= 2 {
		landmarks[LandmarkLeftEye] = points[1]
	}
	if n >= 3 {
		landmarks[LandmarkNoseBase] = points[2]
	}
	if n >= 5 {
		landmarks[LandmarkMouthBottom] = geometry.Point{
			X: (points[3].X + points[4].X) / 2,
			Y: (points[3].Y + points[4].Y) / 2,
		}
	}
	return landmarks
}

// flattenRGB converts the image to row-major RGB bytes.
func flattenRGB(img image.Image) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return out
}
