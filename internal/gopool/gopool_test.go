/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gopool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoPool(t *testing.T) {
	p := NewGoPool("TestGoPool", nil)

	n := 10
	wg := sync.WaitGroup{}
	wg.Add(n)
	v := int32(0)
	for i := 0; i < n; i++ {
		p.Go(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&v, 1)
			wg.Done()
		})
	}
	wg.Wait()
	require.Equal(t, int32(n), atomic.LoadInt32(&v))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	x := "testpanic"
	p.SetPanicHandler(func(c context.Context, r interface{}) {
		defer wg.Done()
		require.Equal(t, x, r)
		require.Same(t, ctx, c)
	})
	wg.Add(1)
	p.CtxGo(ctx, func() {
		panic(x)
	})
	wg.Wait()
}

func TestRunAndWait(t *testing.T) {
	p := NewGoPool("TestRunAndWait", nil)

	var v int32
	p.RunAndWait(50, func(i int) func() {
		return func() { atomic.AddInt32(&v, 1) }
	})

	require.Equal(t, int32(50), atomic.LoadInt32(&v))
}

func TestGoPool_Ticker(t *testing.T) {
	o := DefaultOption()
	o.WorkerMaxAge = 50 * time.Millisecond
	p := NewGoPool("TestGoPool_Ticker", o)
	for i := 0; i < 10; i++ {
		p.Go(func() { time.Sleep(o.WorkerMaxAge) })
	}
	time.Sleep(o.WorkerMaxAge / 10) // wait all goroutines to run
	require.Equal(t, 10, p.CurrentWorkers())
	time.Sleep(2 * o.WorkerMaxAge) // ticker will trigger worker to exit
	require.Equal(t, 0, p.CurrentWorkers())
}
