package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/fjod/go_booking/internal/domain"
)

const (
	StaffServiceName = "booking.v1.StaffService"

	setStatusMethod  = "/" + StaffServiceName + "/SetStatus"
	getBookingMethod = "/" + StaffServiceName + "/GetBooking"
)

type SetStatusRequest struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type SetStatusResponse struct {
	Changed bool                        `json:"changed"`
	Booking domain.BookingHistoryRecord `json:"booking"`
}

type GetBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type GetBookingResponse struct {
	Booking domain.BookingHistoryRecord `json:"booking"`
}

// StaffServer is the server side of the staff service.
type StaffServer interface {
	SetStatus(context.Context, *SetStatusRequest) (*SetStatusResponse, error)
	GetBooking(context.Context, *GetBookingRequest) (*GetBookingResponse, error)
}

func RegisterStaffServer(s grpc.ServiceRegistrar, srv StaffServer) {
	s.RegisterService(&StaffServiceDesc, srv)
}

var StaffServiceDesc = grpc.ServiceDesc{
	ServiceName: StaffServiceName,
	HandlerType: (*StaffServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetStatus", Handler: staffSetStatusHandler},
		{MethodName: "GetBooking", Handler: staffGetBookingHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func staffSetStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StaffServer).SetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: setStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StaffServer).SetStatus(ctx, req.(*SetStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func staffGetBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBookingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StaffServer).GetBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getBookingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StaffServer).GetBooking(ctx, req.(*GetBookingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// StaffClient calls the staff service over the JSON codec.
type StaffClient struct {
	cc grpc.ClientConnInterface
}

func NewStaffClient(cc grpc.ClientConnInterface) *StaffClient {
	return &StaffClient{cc: cc}
}

func (c *StaffClient) SetStatus(ctx context.Context, in *SetStatusRequest, opts ...grpc.CallOption) (*SetStatusResponse, error) {
	out := new(SetStatusResponse)
	if err := c.cc.Invoke(ctx, setStatusMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StaffClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*GetBookingResponse, error) {
	out := new(GetBookingResponse)
	if err := c.cc.Invoke(ctx, getBookingMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}
