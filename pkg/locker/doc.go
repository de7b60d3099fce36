// Package locker provides keyed mutual exclusion for check-then-create flows.
//
// LocalLocker serialises goroutines within one process. RedisLocker extends
// the critical region across instances with a SET NX PX lease released by a
// token-checked script, so an expired holder cannot drop a lease that was
// already taken over by someone else.
//
//	unlock, err := l.Lock(ctx, "billing:customer:"+tenantID)
//	if err != nil {
//		return err
//	}
//	defer unlock()
package locker
